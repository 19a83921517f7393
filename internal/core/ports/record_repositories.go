package ports

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/artifact"
	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/idempotency"
	"orderflow/internal/core/domain/model/inventory"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/outbox"
)

// HistoryRepository is the append-only audit trail.
type HistoryRepository interface {
	Add(ctx context.Context, record history.Record) error
	// ListByOrder returns records ordered by resulting version.
	ListByOrder(ctx context.Context, tenantID, orderID kernel.UUID) ([]history.Record, error)
}

// IdempotencyRepository stores request outcomes keyed by (tenant, key).
type IdempotencyRepository interface {
	// Get returns errs.ObjectNotFoundError when the key was never used.
	Get(ctx context.Context, tenantID kernel.UUID, key string) (idempotency.Record, error)
	// Add returns errs.IdempotencyKeyConflictError when the key already exists.
	Add(ctx context.Context, record idempotency.Record) error
	// DeleteOlderThan removes records created before the cutoff and reports how many.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxRepository holds messages written inside transition units of work.
type OutboxRepository interface {
	Add(ctx context.Context, entry outbox.Entry) error
	// ListPending returns up to limit pending entries, oldest first, skipping
	// rows another relay has locked.
	ListPending(ctx context.Context, limit int) ([]outbox.Entry, error)
	Update(ctx context.Context, entry outbox.Entry) error
}

// ArtifactRepository stores evidence attached to orders.
type ArtifactRepository interface {
	Add(ctx context.Context, a artifact.Artifact) error
	ListByOrder(ctx context.Context, tenantID, orderID kernel.UUID) ([]artifact.Artifact, error)
}

// DocumentRepository stores generated documents.
type DocumentRepository interface {
	Add(ctx context.Context, d artifact.Document) error
	ListByOrder(ctx context.Context, tenantID, orderID kernel.UUID) ([]artifact.Document, error)
}

// InventoryRepository manages tenant stock.
type InventoryRepository interface {
	// GetForUpdate locks the stock row of sku.
	// Returns errs.ObjectNotFoundError for unknown SKUs.
	GetForUpdate(ctx context.Context, tenantID kernel.UUID, sku string) (inventory.StockItem, error)
	// Save inserts or updates a stock row.
	Save(ctx context.Context, item inventory.StockItem) error
}
