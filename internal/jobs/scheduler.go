package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// runTimeout bounds a single scheduled run.
const runTimeout = time.Minute

// scheduledJob runs fn on a cron schedule with seconds precision. A run that
// is still going when the next tick fires makes that tick a no-op.
type scheduledJob struct {
	name     string
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
	fn       func(ctx context.Context)
}

func newScheduledJob(name, schedule string, logger *slog.Logger, fn func(ctx context.Context)) *scheduledJob {
	return &scheduledJob{
		name:     name,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger,
		fn:       fn,
	}
}

func (j *scheduledJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		j.fn(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %s job with %q: %w", j.name, j.schedule, err)
	}

	j.cron.Start()
	j.logger.Info("job started", "schedule", j.schedule)
	return nil
}

// Stop waits for a running invocation to finish.
func (j *scheduledJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("job stopped")
}
