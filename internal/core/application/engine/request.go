package engine

import (
	"errors"
	"time"

	"orderflow/internal/core/domain/model/idempotency"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"
)

const maxIdempotencyKeyLength = 255

// TransitionRequest is the generic form every screen adapter produces.
type TransitionRequest struct {
	TenantID kernel.UUID
	OrderID  kernel.UUID
	Screen   screen.Key
	// FromStatus is optional. When set and different from the stored status
	// the request fails with StaleStateError.
	FromStatus workflow.StatusCode
	ToStatus   workflow.StatusCode
	// ExpectedVersion is optional. When set the order's version must match.
	ExpectedVersion *int64
	Actor           kernel.Actor
	Input           screen.Input
	IdempotencyKey  string
}

// Validate checks the request is well formed. It says nothing about whether
// the transition is allowed.
func (r TransitionRequest) Validate() error {
	var problems []error
	problems = append(problems, r.TenantID.Validate(), r.OrderID.Validate(), r.ToStatus.Validate(), r.Actor.Validate())
	if r.Screen == "" {
		problems = append(problems, errs.NewValueIsRequiredError("screen"))
	}
	if r.FromStatus != "" {
		problems = append(problems, r.FromStatus.Validate())
	}
	switch {
	case r.IdempotencyKey == "":
		problems = append(problems, errs.NewValueIsRequiredError("idempotency key"))
	case len(r.IdempotencyKey) > maxIdempotencyKeyLength:
		problems = append(problems, errs.NewValueIsOutOfRangeError("idempotency key length", len(r.IdempotencyKey), 1, maxIdempotencyKeyLength))
	}
	if r.ExpectedVersion != nil && *r.ExpectedVersion < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("expectedVersion", *r.ExpectedVersion, 1, "unbounded"))
	}
	return errors.Join(problems...)
}

// Fingerprint identifies the request for idempotency key reuse checks.
func (r TransitionRequest) Fingerprint() idempotency.Fingerprint {
	return idempotency.Fingerprint{OrderID: r.OrderID, Screen: r.Screen.String(), ToStatus: r.ToStatus}
}

func (r TransitionRequest) key() Key {
	return Key{TenantID: r.TenantID, OrderID: r.OrderID, IdempotencyKey: r.IdempotencyKey}
}

// TransitionResult is returned to callers. A replay returns the stored result
// of the first attempt with Replayed set.
type TransitionResult struct {
	OrderID    kernel.UUID
	From       workflow.StatusCode
	To         workflow.StatusCode
	Phase      workflow.Phase
	Version    int64
	HistoryID  kernel.UUID
	OccurredAt time.Time
	Replayed   bool
}

func resultFrom(r idempotency.Result, replayed bool) TransitionResult {
	return TransitionResult{
		OrderID:    r.OrderID,
		From:       r.From,
		To:         r.To,
		Phase:      r.Phase,
		Version:    r.Version,
		HistoryID:  r.HistoryID,
		OccurredAt: r.OccurredAt,
		Replayed:   replayed,
	}
}
