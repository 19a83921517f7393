package queries

import (
	"context"

	"orderflow/internal/core/application/engine"
	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/services"
)

type (
	// OrderReader reads orders without locking them.
	OrderReader interface {
		Get(ctx context.Context, tenantID, id kernel.UUID) (*order.Order, error)
	}

	// HistoryReader reads the audit trail of an order.
	HistoryReader interface {
		ListByOrder(ctx context.Context, tenantID, orderID kernel.UUID) ([]history.Record, error)
	}

	// TransitionAdvisor evaluates transitions without executing them.
	TransitionAdvisor interface {
		AllowedTransitions(
			ctx context.Context,
			tenantID, orderID kernel.UUID,
			key screen.Key,
			actor kernel.Actor,
		) (*order.Order, []engine.AllowedTransition, error)
		Preview(ctx context.Context, req engine.TransitionRequest) (services.ValidationResult, error)
	}
)
