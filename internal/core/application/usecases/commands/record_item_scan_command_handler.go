package commands

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/artifact"
	"orderflow/internal/core/domain/model/order"
)

// scanCompleteReference marks the scan_ok artifact registered by the scanner
// rather than attached by an operator.
const scanCompleteReference = "scanner:all-items"

// RecordItemScanCommandHandler updates the order's scan counters. When the last
// item is scanned it registers the scan_ok artifact edges may require.
//
// Counters do not bump the order version: the version counts accepted
// transitions only. The update is still version guarded against a concurrent
// transition.
type RecordItemScanCommandHandler struct {
	uowFactory EvidenceUoWFactory
}

func NewRecordItemScanCommandHandler(uowFactory EvidenceUoWFactory) RecordItemScanCommandHandler {
	return RecordItemScanCommandHandler{uowFactory: uowFactory}
}

// Handle returns the counters after the scan.
func (h *RecordItemScanCommandHandler) Handle(ctx context.Context, cmd RecordItemScanCommand) (order.Counters, error) {
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

	o, err := uow.OrderRepository().GetForUpdate(ctx, cmd.TenantID(), cmd.OrderID())
	if err != nil {
		return order.Counters{}, err
	}

	now := time.Now()
	if err = o.RecordScan(now); err != nil {
		return order.Counters{}, err
	}
	if cmd.Exception() {
		if err = o.RaiseExceptions(1, now); err != nil {
			return order.Counters{}, err
		}
	}
	if err = uow.OrderRepository().Update(ctx, o, o.Version()); err != nil {
		return order.Counters{}, err
	}

	if o.AllItemsScanned() {
		if err = h.registerScanOK(ctx, uow, o, now); err != nil {
			return order.Counters{}, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return order.Counters{}, err
	}

	return o.Counters(), nil
}

func (h *RecordItemScanCommandHandler) registerScanOK(ctx context.Context, uow EvidenceUoW, o *order.Order, now time.Time) error {
	existing, err := uow.ArtifactRepository().ListByOrder(ctx, o.TenantID(), o.ID())
	if err != nil {
		return err
	}
	for _, a := range existing {
		if a.Kind == artifact.ScanOK {
			return nil
		}
	}

	a, err := artifact.NewArtifact(o.TenantID(), o.ID(), artifact.ScanOK, scanCompleteReference, now)
	if err != nil {
		return err
	}
	return uow.ArtifactRepository().Add(ctx, a)
}
