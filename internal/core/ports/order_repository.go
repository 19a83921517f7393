// Package ports defines the contracts between the workflow core and its
// infrastructure: persistence, the policy engine and the outbox publisher.
package ports

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/workflow"
)

// OrderRepository defines the persistence contract for order aggregates.
// Orders are always addressed within a tenant.
type OrderRepository interface {
	// Add persists a new order. The order must be valid and not exist yet.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order without locking it.
	// Returns errs.ObjectNotFoundError when the order does not exist in the tenant.
	Get(ctx context.Context, tenantID, id kernel.UUID) (*order.Order, error)

	// GetForUpdate retrieves an order and locks its row until the surrounding
	// unit of work ends. Concurrent callers for the same order wait here.
	GetForUpdate(ctx context.Context, tenantID, id kernel.UUID) (*order.Order, error)

	// Update persists the full state of the order if its stored version still
	// equals expectedVersion.
	// Returns errs.ConcurrentModificationError when another writer got there first.
	Update(ctx context.Context, aggregate *order.Order, expectedVersion int64) error

	// ListActiveInStatus returns one page of the orders selected by q, ordered by
	// (UpdatedAt, ID). Used by the auto-advance job.
	ListActiveInStatus(ctx context.Context, q ActiveOrderQuery) ([]*order.Order, error)
}

// ActiveOrderQuery selects active orders of one tenant that sit in Status and
// are pinned to Template. After, when set, resumes strictly past that position.
type ActiveOrderQuery struct {
	TenantID kernel.UUID
	Status   workflow.StatusCode
	Template workflow.Ref
	After    *OrderCursor
	Limit    int
}

// OrderCursor is a position in the (UpdatedAt, ID) ordering.
type OrderCursor struct {
	UpdatedAt time.Time
	ID        kernel.UUID
}

// Next returns the query for the page that follows last.
func (q ActiveOrderQuery) Next(last *order.Order) ActiveOrderQuery {
	q.After = &OrderCursor{UpdatedAt: last.UpdatedAt(), ID: last.ID()}
	return q
}
