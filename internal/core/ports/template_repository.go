package ports

import (
	"context"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
)

// TemplateRepository stores immutable workflow template versions and each
// tenant's active version pointer. Templates are read outside the order lock.
type TemplateRepository interface {
	// Get returns errs.ObjectNotFoundError when the version does not exist for the tenant.
	Get(ctx context.Context, tenantID kernel.UUID, ref workflow.Ref) (workflow.Template, error)

	// GetActive returns the tenant's active template reference, or
	// errs.ObjectNotFoundError when none was published.
	GetActive(ctx context.Context, tenantID kernel.UUID) (workflow.Ref, error)

	// LatestVersion returns the highest version published under code, 0 if none.
	LatestVersion(ctx context.Context, tenantID kernel.UUID, code string) (int, error)

	// Publish stores a new version and makes it the tenant's active template
	// in one transaction.
	Publish(ctx context.Context, tpl workflow.Template) error

	// ListAutoAdvancing returns every stored template that has at least one
	// AutoWhenDone edge.
	ListAutoAdvancing(ctx context.Context) ([]workflow.Template, error)
}

// ContractRepository stores tenant overrides of screen contracts.
type ContractRepository interface {
	// Get returns errs.ObjectNotFoundError when the tenant has no override for key.
	Get(ctx context.Context, tenantID kernel.UUID, key screen.Key) (screen.Contract, error)
	Save(ctx context.Context, tenantID kernel.UUID, contract screen.Contract) error
}
