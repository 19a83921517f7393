package commands

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/order"
)

// ResolveExceptionCommandHandler decrements the order's exception counter.
// Like scans, it leaves the order version untouched.
type ResolveExceptionCommandHandler struct {
	uowFactory OrderUoWFactory
}

func NewResolveExceptionCommandHandler(uowFactory OrderUoWFactory) ResolveExceptionCommandHandler {
	return ResolveExceptionCommandHandler{uowFactory: uowFactory}
}

func (h *ResolveExceptionCommandHandler) Handle(ctx context.Context, cmd ResolveExceptionCommand) (order.Counters, error) {
	if err := cmd.Validate(); err != nil {
		return order.Counters{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return order.Counters{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.GetForUpdate(ctx, cmd.TenantID(), cmd.OrderID())
	if err != nil {
		return order.Counters{}, err
	}

	if err = o.ResolveExceptions(cmd.Count(), time.Now()); err != nil {
		return order.Counters{}, err
	}

	if err = orderRepo.Update(ctx, o, o.Version()); err != nil {
		return order.Counters{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return order.Counters{}, err
	}

	return o.Counters(), nil
}
