package jobs

import (
	"context"
	"log/slog"

	"orderflow/internal/core/application/usecases/commands"
)

type autoAdvancer interface {
	Handle(ctx context.Context, cmd commands.AutoAdvanceCommand) (int, error)
}

// AutoAdvanceJob moves orders across autoWhenDone edges as the system actor.
type AutoAdvanceJob struct {
	*scheduledJob
	handler autoAdvancer
	cmd     commands.AutoAdvanceCommand
	logger  *slog.Logger
}

func NewAutoAdvanceJob(handler autoAdvancer, schedule string, limit int, logger *slog.Logger) (*AutoAdvanceJob, error) {
	cmd, err := commands.NewAutoAdvanceCommand(limit)
	if err != nil {
		return nil, err
	}

	j := &AutoAdvanceJob{
		handler: handler,
		cmd:     cmd,
		logger:  logger.With("component", "auto_advance_job"),
	}
	j.scheduledJob = newScheduledJob("auto advance", schedule, j.logger, j.Run)
	return j, nil
}

func (j *AutoAdvanceJob) Run(ctx context.Context) {
	advanced, err := j.handler.Handle(ctx, j.cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Auto advance failed", "error", err)
		return
	}
	if advanced > 0 {
		j.logger.InfoContext(ctx, "Orders auto-advanced", "count", advanced)
	}
}
