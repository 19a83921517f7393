package jobs

import (
	"context"
	"log/slog"

	"orderflow/internal/core/application/usecases/commands"
)

type outboxRelay interface {
	Handle(ctx context.Context, cmd commands.RelayOutboxCommand) (commands.RelayReport, error)
}

// OutboxRelayJob publishes pending outbox entries in batches.
type OutboxRelayJob struct {
	*scheduledJob
	handler outboxRelay
	cmd     commands.RelayOutboxCommand
	logger  *slog.Logger
}

func NewOutboxRelayJob(
	handler outboxRelay,
	schedule string,
	batchSize, maxAttempts int,
	logger *slog.Logger,
) (*OutboxRelayJob, error) {
	cmd, err := commands.NewRelayOutboxCommand(batchSize, maxAttempts)
	if err != nil {
		return nil, err
	}

	j := &OutboxRelayJob{
		handler: handler,
		cmd:     cmd,
		logger:  logger.With("component", "outbox_relay_job"),
	}
	j.scheduledJob = newScheduledJob("outbox relay", schedule, j.logger, j.Run)
	return j, nil
}

func (j *OutboxRelayJob) Run(ctx context.Context) {
	report, err := j.handler.Handle(ctx, j.cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Outbox relay failed", "error", err)
		return
	}
	if report.Failed > 0 || report.Dead > 0 {
		j.logger.WarnContext(ctx, "Outbox relay finished with failures",
			"published", report.Published, "failed", report.Failed, "dead", report.Dead)
	}
}
