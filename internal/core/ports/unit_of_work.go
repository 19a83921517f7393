package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
// This ensures proper isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// Client code must explicitly manage transaction lifecycle. Repositories
// returned after Begin share the transaction; before Begin they run in
// autocommit mode.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction. Calling it without an
	// active transaction is a no-op, so it is safe to defer.
	Rollback(ctx context.Context) error

	OrderRepository() OrderRepository
	HistoryRepository() HistoryRepository
	IdempotencyRepository() IdempotencyRepository
	OutboxRepository() OutboxRepository
	ArtifactRepository() ArtifactRepository
	DocumentRepository() DocumentRepository
	InventoryRepository() InventoryRepository
}
