package engine

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/idempotency"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"
)

// Executor applies one validated transition inside a unit of work: status,
// stage and version change, declared side effects, history, and the
// version-guarded order update. Any failure aborts the whole unit.
type Executor struct {
	validator services.TransitionValidator
	effects   *SideEffects
	recorder  *Recorder
	now       func() time.Time
}

func NewExecutor(validator services.TransitionValidator, effects *SideEffects, recorder *Recorder) *Executor {
	return &Executor{
		validator: validator,
		effects:   effects,
		recorder:  recorder,
		now:       time.Now,
	}
}

// ExecuteTransition re-validates the request against the locked order and
// applies it.
func (e *Executor) ExecuteTransition(
	ctx context.Context,
	uow ports.UnitOfWork,
	o *order.Order,
	tpl workflow.Template,
	contract screen.Contract,
	req TransitionRequest,
) (idempotency.Result, error) {
	artifacts, err := uow.ArtifactRepository().ListByOrder(ctx, o.TenantID(), o.ID())
	if err != nil {
		return idempotency.Result{}, err
	}

	validated, err := e.validator.Validate(services.ValidationInput{
		Template:   tpl,
		Contract:   contract,
		Order:      o,
		FromStatus: req.FromStatus,
		ToStatus:   req.ToStatus,
		Actor:      req.Actor,
		Input:      req.Input,
		Artifacts:  services.NewArtifactSet(artifacts),
	})
	if err != nil {
		return idempotency.Result{}, err
	}

	now := e.now().UTC()
	from := o.Status()
	expectedVersion := o.Version()

	if err = o.ApplyTransition(validated.Stage, now); err != nil {
		return idempotency.Result{}, err
	}

	ec := EffectContext{Order: o, From: from, To: validated.Stage.Code, Screen: req.Screen.String(), OccurredAt: now}
	if err = e.effects.Apply(ctx, uow, ec, validated.Transition.Effects); err != nil {
		return idempotency.Result{}, err
	}

	rec, err := e.recorder.Record(ctx, uow, o, Event{
		Screen:         req.Screen.String(),
		From:           from,
		To:             validated.Stage.Code,
		Actor:          req.Actor,
		Input:          req.Input,
		IdempotencyKey: req.IdempotencyKey,
		OccurredAt:     now,
	})
	if err != nil {
		return idempotency.Result{}, err
	}

	if err = uow.OrderRepository().Update(ctx, o, expectedVersion); err != nil {
		return idempotency.Result{}, err
	}

	return idempotency.Result{
		OrderID:    o.ID(),
		From:       from,
		To:         o.Status(),
		Phase:      o.Phase(),
		Version:    o.Version(),
		HistoryID:  rec.ID,
		OccurredAt: now,
	}, nil
}
