// Package order provides the Order aggregate driven by the workflow engine.
//
// An order is pinned to one immutable workflow template version for its whole
// life. Its status and version change only through accepted transitions; its
// item counters and QA decision change through scan, exception and QA input.
//
// Key business rules:
//   - Orders start at the initial stage of their template with version 1
//   - Every accepted transition increments the version by exactly one
//   - Scanned and exception counters never exceed the total item count
//   - Orders are never deleted; Deactivate takes them out of circulation
package order
