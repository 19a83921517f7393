package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"orderflow/internal/core/domain/model/outbox"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/metrics"
)

// Retries inside a single relay pass. Entries that still fail are retried by
// the next pass until they run out of attempts.
const (
	publishRetries         = 2
	publishInitialInterval = 20 * time.Millisecond
)

// RelayReport summarises one relay pass.
type RelayReport struct {
	Published int
	Failed    int
	Dead      int
}

// RelayOutboxCommandHandler publishes pending entries and records the outcome
// on each entry. Entries are locked for the duration of the pass, so two relays
// never deliver the same entry concurrently.
type RelayOutboxCommandHandler struct {
	uowFactory OutboxUoWFactory
	publisher  ports.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewRelayOutboxCommandHandler(
	uowFactory OutboxUoWFactory,
	publisher ports.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) RelayOutboxCommandHandler {
	return RelayOutboxCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		metrics:    m,
		logger:     logger.With("component", "outbox-relay"),
	}
}

func (h *RelayOutboxCommandHandler) Handle(ctx context.Context, cmd RelayOutboxCommand) (RelayReport, error) {
	if err := cmd.Validate(); err != nil {
		return RelayReport{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return RelayReport{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OutboxRepository()
	pending, err := repo.ListPending(ctx, cmd.BatchSize())
	if err != nil {
		return RelayReport{}, err
	}

	var report RelayReport
	for _, entry := range pending {
		if err = h.deliver(ctx, &entry, cmd.MaxAttempts(), &report); err != nil {
			return RelayReport{}, err
		}
		if err = repo.Update(ctx, entry); err != nil {
			return RelayReport{}, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return RelayReport{}, err
	}

	return report, nil
}

func (h *RelayOutboxCommandHandler) deliver(ctx context.Context, entry *outbox.Entry, maxAttempts int, report *RelayReport) error {
	publishErr := backoff.Retry(func() error {
		return h.publisher.Publish(ctx, *entry)
	}, h.backOff(ctx))

	if publishErr == nil {
		h.metrics.ObserveOutbox(entry.Topic, "published")
		report.Published++
		return entry.MarkPublished(time.Now())
	}

	if err := entry.MarkFailed(publishErr, maxAttempts); err != nil {
		return err
	}
	if entry.Status == outbox.Dead {
		h.metrics.ObserveOutbox(entry.Topic, "dead")
		report.Dead++
		h.logger.Error("outbox entry given up",
			"entry_id", entry.ID.String(), "topic", entry.Topic, "attempts", entry.Attempts, "error", publishErr)
		return nil
	}
	h.metrics.ObserveOutbox(entry.Topic, "failed")
	report.Failed++
	h.logger.Warn("outbox delivery failed",
		"entry_id", entry.ID.String(), "topic", entry.Topic, "attempts", entry.Attempts, "error", publishErr)
	return nil
}

func (h *RelayOutboxCommandHandler) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = publishInitialInterval
	return backoff.WithContext(backoff.WithMaxRetries(b, publishRetries), ctx)
}
