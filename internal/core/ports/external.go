package ports

import (
	"context"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/outbox"
)

// PolicyRequest asks whether a user holds a permission in a tenant.
type PolicyRequest struct {
	UserID     string
	TenantID   kernel.UUID
	Permission string
	ResourceID string
}

// PolicyEngine decides permissions. It is consulted by screen adapters
// before any transition work starts.
type PolicyEngine interface {
	Allowed(ctx context.Context, req PolicyRequest) (bool, error)
}

// Publisher delivers outbox entries to the message bus.
type Publisher interface {
	Publish(ctx context.Context, entry outbox.Entry) error
}
