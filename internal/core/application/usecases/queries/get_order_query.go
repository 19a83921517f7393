package queries

import (
	"context"
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/guard"
)

var (
	ErrGetOrderQueryIsNotConstructed = errors.New(
		"GetOrderQuery must be created via NewGetOrderQuery constructor",
	)
)

// GetOrderQuery reads one order.
type GetOrderQuery struct {
	tenantID kernel.UUID
	orderID  kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetOrderQuery(tenantID, orderID kernel.UUID) (GetOrderQuery, error) {
	if err := errors.Join(tenantID.Validate(), orderID.Validate()); err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{tenantID: tenantID, orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// GetOrderQueryResponse is the order read model.
type GetOrderQueryResponse struct {
	ID          kernel.UUID
	TenantID    kernel.UUID
	Template    workflow.Ref
	Status      workflow.StatusCode
	Phase       workflow.Phase
	Version     int64
	Counters    order.Counters
	QADecision  order.QADecision
	RetailLines []order.RetailLine
	Active      bool
	UpdatedAt   time.Time
}

// OrderResponse converts an aggregate into the read model.
func OrderResponse(o *order.Order) GetOrderQueryResponse {
	return GetOrderQueryResponse{
		ID:          o.ID(),
		TenantID:    o.TenantID(),
		Template:    o.Template(),
		Status:      o.Status(),
		Phase:       o.Phase(),
		Version:     o.Version(),
		Counters:    o.Counters(),
		QADecision:  o.QADecision(),
		RetailLines: o.RetailLines(),
		Active:      o.IsActive(),
		UpdatedAt:   o.UpdatedAt(),
	}
}

type GetOrderQueryHandler struct {
	orders OrderReader
}

func NewGetOrderQueryHandler(orders OrderReader) GetOrderQueryHandler {
	return GetOrderQueryHandler{orders: orders}
}

func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	o, err := h.orders.Get(ctx, query.tenantID, query.orderID)
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	return OrderResponse(o), nil
}
