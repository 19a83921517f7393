// Package workflow models the per-tenant workflow template: the ordered set of
// stages an order can occupy and the transitions allowed between them.
//
// A Template is an immutable, versioned snapshot. Editing a workflow means
// publishing a new version and re-pointing the tenant's active reference; orders
// keep the TemplateRef they were created with until they complete, so a
// configuration change never tears an order mid-flight.
//
// Each Transition carries gating flags (AllowManual, AutoWhenDone,
// RequiresScanOK, RequiresPOD, RequiresInvoice), the codes of extra
// pre-conditions to evaluate, and the side effects (Effect) the executor must
// apply atomically with the status change.
package workflow
