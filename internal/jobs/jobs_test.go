package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockPurger struct{ mock.Mock }

func (m *MockPurger) Handle(ctx context.Context, cmd commands.PurgeIdempotencyRecordsCommand) (int64, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(int64), args.Error(1)
}

type MockRelay struct{ mock.Mock }

func (m *MockRelay) Handle(ctx context.Context, cmd commands.RelayOutboxCommand) (commands.RelayReport, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.RelayReport), args.Error(1)
}

type MockAdvancer struct{ mock.Mock }

func (m *MockAdvancer) Handle(ctx context.Context, cmd commands.AutoAdvanceCommand) (int, error) {
	args := m.Called(ctx, cmd)
	return args.Int(0), args.Error(1)
}

type fakeJob struct {
	name     string
	startErr error
	log      *[]string
}

func (f *fakeJob) Start() error {
	*f.log = append(*f.log, "start "+f.name)
	return f.startErr
}

func (f *fakeJob) Stop() {
	*f.log = append(*f.log, "stop "+f.name)
}

func TestIdempotencyPurgeJob_Run(t *testing.T) {
	ctx := t.Context()
	handler := new(MockPurger)
	want, err := commands.NewPurgeIdempotencyRecordsCommand(48 * time.Hour)
	require.NoError(t, err)
	handler.On("Handle", ctx, want).Return(int64(3), nil).Once()
	handler.On("Handle", ctx, want).Return(int64(0), errors.New("db down")).Once()

	job, err := jobs.NewIdempotencyPurgeJob(handler, "0 0 * * * *", 48*time.Hour, discardLogger())
	require.NoError(t, err)

	job.Run(ctx)
	job.Run(ctx)

	handler.AssertExpectations(t)
}

func TestNewIdempotencyPurgeJob_InvalidRetention(t *testing.T) {
	_, err := jobs.NewIdempotencyPurgeJob(new(MockPurger), "0 0 * * * *", 0, discardLogger())
	require.Error(t, err)
}

func TestOutboxRelayJob_Run(t *testing.T) {
	ctx := t.Context()
	handler := new(MockRelay)
	want, err := commands.NewRelayOutboxCommand(50, 5)
	require.NoError(t, err)
	handler.On("Handle", ctx, want).Return(commands.RelayReport{Published: 4, Failed: 1}, nil).Once()

	job, err := jobs.NewOutboxRelayJob(handler, "*/5 * * * * *", 50, 5, discardLogger())
	require.NoError(t, err)

	job.Run(ctx)

	handler.AssertExpectations(t)
}

func TestNewOutboxRelayJob_InvalidBatch(t *testing.T) {
	_, err := jobs.NewOutboxRelayJob(new(MockRelay), "*/5 * * * * *", 0, 5, discardLogger())
	require.Error(t, err)
}

func TestAutoAdvanceJob_Run(t *testing.T) {
	ctx := t.Context()
	handler := new(MockAdvancer)
	want, err := commands.NewAutoAdvanceCommand(100)
	require.NoError(t, err)
	handler.On("Handle", ctx, want).Return(2, nil).Once()

	job, err := jobs.NewAutoAdvanceJob(handler, "*/10 * * * * *", 100, discardLogger())
	require.NoError(t, err)

	job.Run(ctx)

	handler.AssertExpectations(t)
}

func TestScheduledJob_StartRejectsBadSchedule(t *testing.T) {
	job, err := jobs.NewAutoAdvanceJob(new(MockAdvancer), "every now and then", 100, discardLogger())
	require.NoError(t, err)

	err = job.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auto advance")
}

func TestScheduledJob_StartStop(t *testing.T) {
	job, err := jobs.NewAutoAdvanceJob(new(MockAdvancer), "0 0 0 1 1 *", 100, discardLogger())
	require.NoError(t, err)

	require.NoError(t, job.Start())
	job.Stop()
}

func TestJobManager_StartAllStopAll(t *testing.T) {
	var log []string
	jm := jobs.NewJobManager(&fakeJob{name: "a", log: &log}, &fakeJob{name: "b", log: &log})

	require.NoError(t, jm.StartAll())
	jm.StopAll()

	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, log)
}

func TestJobManager_StartAllStopsStartedOnFailure(t *testing.T) {
	var log []string
	jm := jobs.NewJobManager(
		&fakeJob{name: "a", log: &log},
		&fakeJob{name: "b", log: &log},
		&fakeJob{name: "c", startErr: errors.New("boom"), log: &log},
	)

	err := jm.StartAll()

	require.Error(t, err)
	assert.Equal(t, []string{"start a", "start b", "start c", "stop b", "stop a"}, log)
}
