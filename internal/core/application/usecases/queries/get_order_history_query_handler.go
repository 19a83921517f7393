package queries

import (
	"context"
)

// GetOrderHistoryQueryHandler checks the order exists in the tenant before
// reading its history, so an unknown order is a not-found error rather than an
// empty list.
type GetOrderHistoryQueryHandler struct {
	orders  OrderReader
	history HistoryReader
}

func NewGetOrderHistoryQueryHandler(orders OrderReader, history HistoryReader) GetOrderHistoryQueryHandler {
	return GetOrderHistoryQueryHandler{orders: orders, history: history}
}

// Handle returns entries ordered by resulting version.
func (h GetOrderHistoryQueryHandler) Handle(ctx context.Context, query GetOrderHistoryQuery) ([]HistoryEntry, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.orders.Get(ctx, query.tenantID, query.orderID); err != nil {
		return nil, err
	}

	records, err := h.history.ListByOrder(ctx, query.tenantID, query.orderID)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, HistoryEntry{
			ID:             r.ID,
			Screen:         r.Screen,
			From:           r.From,
			To:             r.To,
			Actor:          r.Actor.String(),
			OccurredAt:     r.OccurredAt,
			Input:          r.Input,
			IdempotencyKey: r.IdempotencyKey,
			Version:        r.ResultingVersion,
		})
	}
	return entries, nil
}
