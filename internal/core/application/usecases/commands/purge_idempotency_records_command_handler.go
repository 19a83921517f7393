package commands

import (
	"context"
	"time"
)

// PurgeIdempotencyRecordsCommandHandler deletes expired idempotency records in
// one statement and reports how many went away.
type PurgeIdempotencyRecordsCommandHandler struct {
	uowFactory IdempotencyUoWFactory
}

func NewPurgeIdempotencyRecordsCommandHandler(uowFactory IdempotencyUoWFactory) PurgeIdempotencyRecordsCommandHandler {
	return PurgeIdempotencyRecordsCommandHandler{uowFactory: uowFactory}
}

func (h *PurgeIdempotencyRecordsCommandHandler) Handle(ctx context.Context, cmd PurgeIdempotencyRecordsCommand) (int64, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-cmd.Retention())
	return h.uowFactory.Create().IdempotencyRepository().DeleteOlderThan(ctx, cutoff)
}
