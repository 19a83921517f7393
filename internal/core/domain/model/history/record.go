// Package history holds the append-only audit trail of accepted transitions.
package history

import (
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"
)

// Record is one accepted transition. Ordered by Version, the records of an
// order form a path through its template's graph.
type Record struct {
	ID               kernel.UUID
	TenantID         kernel.UUID
	OrderID          kernel.UUID
	Screen           string
	From             workflow.StatusCode
	To               workflow.StatusCode
	Actor            kernel.Actor
	OccurredAt       time.Time
	Input            map[string]any
	IdempotencyKey   string
	ResultingVersion int64
}

// NewRecord validates and builds a history record.
func NewRecord(
	tenantID, orderID kernel.UUID,
	screen string,
	from, to workflow.StatusCode,
	actor kernel.Actor,
	input map[string]any,
	idempotencyKey string,
	resultingVersion int64,
	occurredAt time.Time,
) (Record, error) {
	if err := errors.Join(
		tenantID.Validate(),
		orderID.Validate(),
		from.Validate(),
		to.Validate(),
		actor.Validate(),
	); err != nil {
		return Record{}, err
	}
	if screen == "" {
		return Record{}, errs.NewValueIsRequiredError("screen")
	}
	if idempotencyKey == "" {
		return Record{}, errs.NewValueIsRequiredError("idempotency key")
	}
	if resultingVersion < 2 {
		return Record{}, errs.NewValueIsOutOfRangeError("resulting version", resultingVersion, 2, "unbounded")
	}

	if input == nil {
		input = map[string]any{}
	}

	return Record{
		ID:               kernel.NewUUID(),
		TenantID:         tenantID,
		OrderID:          orderID,
		Screen:           screen,
		From:             from,
		To:               to,
		Actor:            actor,
		OccurredAt:       occurredAt.UTC(),
		Input:            input,
		IdempotencyKey:   idempotencyKey,
		ResultingVersion: resultingVersion,
	}, nil
}
