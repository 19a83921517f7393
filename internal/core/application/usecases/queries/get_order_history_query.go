package queries

import (
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/guard"
)

var (
	ErrGetOrderHistoryQueryIsNotConstructed = errors.New(
		"GetOrderHistoryQuery must be created via NewGetOrderHistoryQuery constructor",
	)
)

// GetOrderHistoryQuery returns the audit trail of one order.
type GetOrderHistoryQuery struct {
	tenantID kernel.UUID
	orderID  kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetOrderHistoryQuery(tenantID, orderID kernel.UUID) (GetOrderHistoryQuery, error) {
	if err := errors.Join(tenantID.Validate(), orderID.Validate()); err != nil {
		return GetOrderHistoryQuery{}, err
	}
	return GetOrderHistoryQuery{tenantID: tenantID, orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderHistoryQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderHistoryQueryIsNotConstructed)
}

// HistoryEntry is one accepted transition in the read model.
type HistoryEntry struct {
	ID             kernel.UUID
	Screen         string
	From           workflow.StatusCode
	To             workflow.StatusCode
	Actor          string
	OccurredAt     time.Time
	Input          map[string]any
	IdempotencyKey string
	Version        int64
}
