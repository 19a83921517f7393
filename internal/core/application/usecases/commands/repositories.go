// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"orderflow/internal/core/application/engine"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// Each handler depends on the narrowest set of repositories it touches.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// ArtifactRepoFactory provides access to artifact repository within a transaction.
	ArtifactRepoFactory interface {
		ArtifactRepository() ports.ArtifactRepository
	}

	// OutboxRepoFactory provides access to outbox repository within a transaction.
	OutboxRepoFactory interface {
		OutboxRepository() ports.OutboxRepository
	}

	// IdempotencyRepoFactory provides access to idempotency records.
	IdempotencyRepoFactory interface {
		IdempotencyRepository() ports.IdempotencyRepository
	}

	// OrderUoW manages transactions for order-only operations.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// EvidenceUoW covers operations that change an order and its artifacts
	// together, such as scanning.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   o, err := uow.OrderRepository().GetForUpdate(ctx, tenantID, orderID)
	//   err = uow.ArtifactRepository().Add(ctx, a)
	//
	//   err = uow.Commit(ctx)
	EvidenceUoW interface {
		TxManager
		OrderRepoFactory
		ArtifactRepoFactory
	}

	// EvidenceUoWFactory creates new evidence unit of work instances.
	EvidenceUoWFactory interface {
		Create() EvidenceUoW
	}

	// OutboxUoW is used by the relay.
	OutboxUoW interface {
		TxManager
		OutboxRepoFactory
	}

	// OutboxUoWFactory creates new outbox unit of work instances.
	OutboxUoWFactory interface {
		Create() OutboxUoW
	}

	// IdempotencyUoW is used by housekeeping.
	IdempotencyUoW interface {
		TxManager
		IdempotencyRepoFactory
	}

	// IdempotencyUoWFactory creates new idempotency unit of work instances.
	IdempotencyUoWFactory interface {
		Create() IdempotencyUoW
	}
)

// Collaborators implemented by the transition engine.
type (
	// TransitionEngine runs a transition request exactly once per idempotency key.
	TransitionEngine interface {
		Transition(ctx context.Context, req engine.TransitionRequest) (engine.TransitionResult, error)
	}

	// ContractResolver returns the contract of a screen for a tenant.
	ContractResolver interface {
		ResolveContract(ctx context.Context, tenantID kernel.UUID, key screen.Key) (screen.Contract, error)
	}

	// ActiveTemplateSource returns the template new orders are pinned to.
	ActiveTemplateSource interface {
		ActiveTemplate(ctx context.Context, tenantID kernel.UUID) (workflow.Template, error)
	}

	// TemplatePublisher stores a new template version and re-points the tenant to it.
	TemplatePublisher interface {
		Publish(ctx context.Context, tpl workflow.Template) error
	}

	// TemplateVersions reports the latest published version of a template code.
	TemplateVersions interface {
		LatestVersion(ctx context.Context, tenantID kernel.UUID, code string) (int, error)
	}

	// AutoTemplateSource lists templates with auto-advancing edges.
	AutoTemplateSource interface {
		ListAutoAdvancing(ctx context.Context) ([]workflow.Template, error)
	}

	// AutoAdvanceEngine previews and executes system transitions.
	AutoAdvanceEngine interface {
		TransitionEngine
		Preview(ctx context.Context, req engine.TransitionRequest) (services.ValidationResult, error)
	}
)
