package engine_test

import (
	"context"
	"testing"
	"time"

	"orderflow/internal/adapters/out/memory"
	"orderflow/internal/core/application/engine"
	"orderflow/internal/core/domain/model/idempotency"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interleavingFactory runs beforeBegin once, ahead of the next Begin, to let a
// competing writer commit between two units of work.
type interleavingFactory struct {
	inner       *memory.UnitOfWorkFactory
	beforeBegin func()
}

func (f *interleavingFactory) Create() ports.UnitOfWork {
	return &interleavingUoW{UnitOfWork: f.inner.Create(), factory: f}
}

type interleavingUoW struct {
	ports.UnitOfWork
	factory *interleavingFactory
}

func (u *interleavingUoW) Begin(ctx context.Context) error {
	if hook := u.factory.beforeBegin; hook != nil {
		u.factory.beforeBegin = nil
		hook()
	}
	return u.UnitOfWork.Begin(ctx)
}

func TestController_DuplicateThatRecordsFirstWins(t *testing.T) {
	h := newHarness(t, time.Second)
	o := h.orderAt(t, workflow.StatusAssembly, 1, 1)
	factory := &interleavingFactory{inner: h.factory}
	controller := engine.NewController(factory, discardLogger())

	key := engine.Key{TenantID: h.tenantID, OrderID: o.ID(), IdempotencyKey: "dup-1"}
	fp := idempotency.Fingerprint{OrderID: o.ID(), Screen: string(screen.Assembly), ToStatus: workflow.StatusQAPending}
	won := idempotency.Result{
		OrderID:    o.ID(),
		From:       workflow.StatusAssembly,
		To:         workflow.StatusQAPending,
		Phase:      workflow.PhaseQA,
		Version:    2,
		HistoryID:  kernel.NewUUID(),
		OccurredAt: time.Now().UTC(),
	}

	work := func(_ context.Context, _ ports.UnitOfWork, _ *order.Order) (idempotency.Result, error) {
		factory.beforeBegin = func() {
			rec, err := idempotency.NewSucceeded(h.tenantID, key.IdempotencyKey, fp, won, time.Now())
			require.NoError(t, err)
			require.NoError(t, h.factory.Create().IdempotencyRepository().Add(context.Background(), rec))
		}
		return idempotency.Result{}, errs.NewPreConditionNotMetError(screen.NoUnresolvedExceptions, "exception_items > 0")
	}

	res, err := controller.Execute(context.Background(), key, fp, nil, work)

	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, won.HistoryID, res.HistoryID)

	t.Run("failure is recorded when nobody raced", func(t *testing.T) {
		rejected := engine.Key{TenantID: h.tenantID, OrderID: o.ID(), IdempotencyKey: "dup-2"}
		reject := func(_ context.Context, _ ports.UnitOfWork, _ *order.Order) (idempotency.Result, error) {
			return idempotency.Result{}, errs.NewPreConditionNotMetError(screen.NoUnresolvedExceptions, "exception_items > 0")
		}

		_, err := controller.Execute(context.Background(), rejected, fp, nil, reject)
		require.ErrorIs(t, err, errs.ErrPreConditionNotMet)

		_, replayed, err := controller.Replay(context.Background(), rejected, fp)
		assert.True(t, replayed)
		require.ErrorIs(t, err, errs.ErrPreConditionNotMet)
	})
}
