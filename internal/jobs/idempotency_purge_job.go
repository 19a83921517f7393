package jobs

import (
	"context"
	"log/slog"
	"time"

	"orderflow/internal/core/application/usecases/commands"
)

type idempotencyPurger interface {
	Handle(ctx context.Context, cmd commands.PurgeIdempotencyRecordsCommand) (int64, error)
}

// IdempotencyPurgeJob deletes idempotency records older than the retention window.
type IdempotencyPurgeJob struct {
	*scheduledJob
	handler idempotencyPurger
	cmd     commands.PurgeIdempotencyRecordsCommand
	logger  *slog.Logger
}

func NewIdempotencyPurgeJob(
	handler idempotencyPurger,
	schedule string,
	retention time.Duration,
	logger *slog.Logger,
) (*IdempotencyPurgeJob, error) {
	cmd, err := commands.NewPurgeIdempotencyRecordsCommand(retention)
	if err != nil {
		return nil, err
	}

	j := &IdempotencyPurgeJob{
		handler: handler,
		cmd:     cmd,
		logger:  logger.With("component", "idempotency_purge_job"),
	}
	j.scheduledJob = newScheduledJob("idempotency purge", schedule, j.logger, j.Run)
	return j, nil
}

func (j *IdempotencyPurgeJob) Run(ctx context.Context) {
	deleted, err := j.handler.Handle(ctx, j.cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Idempotency purge failed", "error", err)
		return
	}
	if deleted > 0 {
		j.logger.InfoContext(ctx, "Idempotency records purged", "deleted", deleted)
	}
}
