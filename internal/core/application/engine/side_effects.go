package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/artifact"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/outbox"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// EffectContext is what an effect knows about the transition that triggered it.
type EffectContext struct {
	Order      *order.Order
	From       workflow.StatusCode
	To         workflow.StatusCode
	Screen     string
	OccurredAt time.Time
}

// SideEffects applies the effects an edge declares. Every effect writes
// through the unit of work, so a failing effect rolls the whole transition
// back. Effects that reach outside the process are written to the outbox.
type SideEffects struct{}

func NewSideEffects() *SideEffects {
	return &SideEffects{}
}

// Apply runs effects in declaration order and stops at the first failure.
func (s *SideEffects) Apply(ctx context.Context, uow ports.UnitOfWork, ec EffectContext, effects []workflow.Effect) error {
	for _, effect := range effects {
		var err error
		switch effect {
		case workflow.EffectDeductStock:
			err = s.deductStock(ctx, uow, ec)
		case workflow.EffectCreatePackingList:
			err = s.createDocument(ctx, uow, ec, artifact.PackingList)
		case workflow.EffectCreateDeliveryVoucher:
			err = s.createDocument(ctx, uow, ec, artifact.DeliveryVoucher)
		case workflow.EffectNotifyCustomer, workflow.EffectDispatchWebhook:
			err = s.enqueue(ctx, uow, ec, effect)
		default:
			err = effect.Validate()
		}
		if err != nil {
			return fmt.Errorf("effect %s: %w", effect, err)
		}
	}
	return nil
}

func (s *SideEffects) deductStock(ctx context.Context, uow ports.UnitOfWork, ec EffectContext) error {
	repo := uow.InventoryRepository()
	for _, line := range ec.Order.RetailLines() {
		item, err := repo.GetForUpdate(ctx, ec.Order.TenantID(), line.SKU)
		if err != nil {
			if errors.Is(err, errs.ErrObjectNotFound) {
				return errs.NewInsufficientStockError(line.SKU, line.Quantity, 0)
			}
			return err
		}
		if err = item.Deduct(line.Quantity); err != nil {
			return err
		}
		if err = repo.Save(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *SideEffects) createDocument(ctx context.Context, uow ports.UnitOfWork, ec EffectContext, kind artifact.DocumentKind) error {
	lines := make([]map[string]any, 0, len(ec.Order.RetailLines()))
	for _, l := range ec.Order.RetailLines() {
		lines = append(lines, map[string]any{"sku": l.SKU, "quantity": l.Quantity})
	}
	content := map[string]any{
		"orderId":     ec.Order.ID().String(),
		"totalItems":  ec.Order.Counters().TotalItems,
		"retailLines": lines,
		"status":      ec.To.String(),
	}

	doc, err := artifact.NewDocument(ec.Order.TenantID(), ec.Order.ID(), kind, ec.Order.Version(), content, ec.OccurredAt)
	if err != nil {
		return err
	}
	return uow.DocumentRepository().Add(ctx, doc)
}

func (s *SideEffects) enqueue(ctx context.Context, uow ports.UnitOfWork, ec EffectContext, effect workflow.Effect) error {
	payload := map[string]any{
		"tenantId":   ec.Order.TenantID().String(),
		"orderId":    ec.Order.ID().String(),
		"from":       ec.From.String(),
		"to":         ec.To.String(),
		"version":    ec.Order.Version(),
		"screen":     ec.Screen,
		"occurredAt": ec.OccurredAt.Format(time.RFC3339Nano),
	}

	entry, err := outbox.NewEntry(ec.Order.TenantID(), ec.Order.ID(), string(effect), payload, ec.OccurredAt)
	if err != nil {
		return err
	}
	return uow.OutboxRepository().Add(ctx, entry)
}
