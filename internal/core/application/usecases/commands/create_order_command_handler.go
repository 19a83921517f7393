package commands

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/order"
)

// CreateOrderCommandHandler creates orders at the initial stage of the tenant's
// active template and pins them to that template version.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(eng.Graph(), uowFactory)
//	cmd, _ := NewCreateOrderCommand(tenantID, kernel.NewUUID(), 2, nil)
//
//	o, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
//	// o.Status() is the template's initial stage, o.Version() is 1
type CreateOrderCommandHandler struct {
	templates  ActiveTemplateSource
	uowFactory OrderUoWFactory
}

// NewCreateOrderCommandHandler creates a handler for order creation operations.
func NewCreateOrderCommandHandler(templates ActiveTemplateSource, uowFactory OrderUoWFactory) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		templates:  templates,
		uowFactory: uowFactory,
	}
}

// Handle resolves the active template outside the transaction, then persists
// the new order.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	tpl, err := h.templates.ActiveTemplate(ctx, cmd.TenantID())
	if err != nil {
		return nil, err
	}

	o, err := order.NewOrder(
		cmd.OrderID(),
		cmd.TenantID(),
		tpl.Ref(),
		tpl.InitialStage(),
		cmd.TotalItems(),
		cmd.RetailLines(),
		time.Now(),
	)
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return o, nil
}
