package engine

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/core/ports"
)

// Event describes an accepted transition for the audit trail.
type Event struct {
	Screen         string
	From           workflow.StatusCode
	To             workflow.StatusCode
	Actor          kernel.Actor
	Input          screen.Input
	IdempotencyKey string
	OccurredAt     time.Time
}

// Recorder appends history and folds the request input into the order's
// counters. It runs exactly once per accepted transition, inside the
// transition's unit of work.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record applies counter deltas carried by the input to o and appends one
// history record for o's current version.
func (r *Recorder) Record(ctx context.Context, uow ports.UnitOfWork, o *order.Order, e Event) (history.Record, error) {
	if err := applyInput(o, e.Input, e.OccurredAt); err != nil {
		return history.Record{}, err
	}

	rec, err := history.NewRecord(
		o.TenantID(), o.ID(),
		e.Screen, e.From, e.To,
		e.Actor,
		e.Input.Clone(),
		e.IdempotencyKey,
		o.Version(),
		e.OccurredAt,
	)
	if err != nil {
		return history.Record{}, err
	}

	if err = uow.HistoryRepository().Add(ctx, rec); err != nil {
		return history.Record{}, err
	}
	return rec, nil
}

func applyInput(o *order.Order, in screen.Input, now time.Time) error {
	if raised, ok, err := in.Int(screen.InputExceptionsRaised); err != nil {
		return err
	} else if ok {
		if err = o.RaiseExceptions(raised, now); err != nil {
			return err
		}
	}

	if resolved, ok, err := in.Int(screen.InputExceptionsResolved); err != nil {
		return err
	} else if ok {
		if err = o.ResolveExceptions(resolved, now); err != nil {
			return err
		}
	}

	if raw, ok, err := in.String(screen.InputQADecision); err != nil {
		return err
	} else if ok {
		d, parseErr := order.ParseQADecision(raw)
		if parseErr != nil {
			return parseErr
		}
		o.RecordQADecision(d, now)
	}
	return nil
}
