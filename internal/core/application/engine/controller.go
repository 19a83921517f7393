package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/idempotency"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

const failureRecordTimeout = 2 * time.Second

// Key addresses one keyed request against one order.
type Key struct {
	TenantID       kernel.UUID
	OrderID        kernel.UUID
	IdempotencyKey string
}

// Work runs inside the controller's unit of work with the order row locked.
// It must persist its own changes to the order through uow.
type Work func(ctx context.Context, uow ports.UnitOfWork, locked *order.Order) (idempotency.Result, error)

// Controller gives exactly-once semantics to keyed requests:
//
//   - a key already recorded for the same fingerprint replays its outcome
//   - a key recorded for another fingerprint fails with IdempotencyKeyConflict
//   - requests for the same order are serialized by the order row lock
//   - the optional expected version is compared under the lock
//   - the success record commits together with the work
//
// Deterministic rejections of the request are recorded after rollback so
// retries replay them; infrastructure failures are not, so they can be retried.
// When a duplicate records first in that window, its outcome wins.
type Controller struct {
	uowFactory ports.UnitOfWorkFactory
	logger     *slog.Logger
	now        func() time.Time
}

func NewController(uowFactory ports.UnitOfWorkFactory, logger *slog.Logger) *Controller {
	return &Controller{
		uowFactory: uowFactory,
		logger:     logger.With("component", "idempotency_controller"),
		now:        time.Now,
	}
}

// Replay looks the key up without taking any lock. ok is false when the key
// has not been used yet.
func (c *Controller) Replay(ctx context.Context, key Key, fp idempotency.Fingerprint) (TransitionResult, bool, error) {
	rec, err := c.uowFactory.Create().IdempotencyRepository().Get(ctx, key.TenantID, key.IdempotencyKey)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return TransitionResult{}, false, nil
		}
		return TransitionResult{}, false, err
	}
	res, replayErr := c.replay(rec, key, fp)
	return res, true, replayErr
}

// Execute runs work exactly once for key.
func (c *Controller) Execute(
	ctx context.Context,
	key Key,
	fp idempotency.Fingerprint,
	expectedVersion *int64,
	work Work,
) (TransitionResult, error) {
	res, replayed, err := c.execute(ctx, key, fp, expectedVersion, work)
	if err != nil {
		if !replayed && errs.IsCallerInputError(err) {
			return c.recordFailure(ctx, key, fp, err)
		}
		return TransitionResult{}, err
	}
	return res, nil
}

func (c *Controller) execute(
	ctx context.Context,
	key Key,
	fp idempotency.Fingerprint,
	expectedVersion *int64,
	work Work,
) (res TransitionResult, replayed bool, err error) {
	uow := c.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return TransitionResult{}, false, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	locked, err := uow.OrderRepository().GetForUpdate(ctx, key.TenantID, key.OrderID)
	if err != nil {
		return TransitionResult{}, false, err
	}

	// A concurrent duplicate may have committed while we waited for the lock.
	rec, err := uow.IdempotencyRepository().Get(ctx, key.TenantID, key.IdempotencyKey)
	switch {
	case err == nil:
		res, err = c.replay(rec, key, fp)
		return res, true, err
	case !errors.Is(err, errs.ErrObjectNotFound):
		return TransitionResult{}, false, err
	}

	if expectedVersion != nil && *expectedVersion != locked.Version() {
		return TransitionResult{}, false, errs.NewConcurrentModificationError(*expectedVersion, locked.Version())
	}

	result, err := work(ctx, uow, locked)
	if err != nil {
		return TransitionResult{}, false, err
	}

	succeeded, err := idempotency.NewSucceeded(key.TenantID, key.IdempotencyKey, fp, result, c.now())
	if err != nil {
		return TransitionResult{}, false, err
	}
	if err = uow.IdempotencyRepository().Add(ctx, succeeded); err != nil {
		return TransitionResult{}, false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return TransitionResult{}, false, err
	}

	return resultFrom(result, false), false, nil
}

func (c *Controller) replay(rec idempotency.Record, key Key, fp idempotency.Fingerprint) (TransitionResult, error) {
	if !rec.Fingerprint.Matches(fp) {
		return TransitionResult{}, errs.NewIdempotencyKeyConflictError(key.IdempotencyKey)
	}
	c.logger.Debug("replaying stored outcome",
		"tenant_id", key.TenantID.String(), "order_id", key.OrderID.String(), "outcome", string(rec.Outcome))

	result, err := rec.Replay()
	if err != nil {
		return TransitionResult{}, err
	}
	return resultFrom(result, true), nil
}

// recordFailure stores cause under key and returns it. The order lock is
// already released here, so a duplicate may have recorded its own outcome in
// the meantime; that stored outcome is returned instead so every caller of the
// key sees the same answer.
func (c *Controller) recordFailure(ctx context.Context, key Key, fp idempotency.Fingerprint, cause error) (TransitionResult, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureRecordTimeout)
	defer cancel()

	rec, err := idempotency.NewFailed(key.TenantID, key.IdempotencyKey, fp, cause, c.now())
	if err != nil {
		c.logger.Warn("failure record not built", "error", err)
		return TransitionResult{}, cause
	}

	err = c.addFailure(ctx, rec)
	switch {
	case err == nil:
		return TransitionResult{}, cause
	case !errors.Is(err, errs.ErrIdempotencyKeyConflict):
		c.logger.Error("failure record not stored", "error", err)
		return TransitionResult{}, cause
	}

	stored, err := c.uowFactory.Create().IdempotencyRepository().Get(ctx, key.TenantID, key.IdempotencyKey)
	if err != nil {
		c.logger.Error("concurrent outcome not loaded", "error", err)
		return TransitionResult{}, cause
	}
	return c.replay(stored, key, fp)
}

func (c *Controller) addFailure(ctx context.Context, rec idempotency.Record) error {
	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.IdempotencyRepository().Add(ctx, rec); err != nil {
		return err
	}
	return uow.Commit(ctx)
}
