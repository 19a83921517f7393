// Package idempotency models the stored outcome of a keyed transition request.
package idempotency

import (
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"
)

// Outcome of the original request.
type Outcome string

const (
	Succeeded Outcome = "succeeded"
	Failed    Outcome = "failed"
)

// Fingerprint identifies what a key was first used for. Reusing the key for a
// different fingerprint is rejected.
type Fingerprint struct {
	OrderID  kernel.UUID
	Screen   string
	ToStatus workflow.StatusCode
}

// Matches compares two fingerprints.
func (f Fingerprint) Matches(other Fingerprint) bool {
	return f.OrderID.IsEqual(other.OrderID) && f.Screen == other.Screen && f.ToStatus == other.ToStatus
}

// Result is the stored payload of a successful transition.
type Result struct {
	OrderID    kernel.UUID
	From       workflow.StatusCode
	To         workflow.StatusCode
	Phase      workflow.Phase
	Version    int64
	HistoryID  kernel.UUID
	OccurredAt time.Time
}

// Record is what a replay returns. Exactly one of Result and Failure is set,
// according to Outcome.
type Record struct {
	TenantID    kernel.UUID
	Key         string
	Fingerprint Fingerprint
	Outcome     Outcome
	Result      Result
	Failure     errs.Descriptor
	CreatedAt   time.Time
}

// NewSucceeded records a committed transition.
func NewSucceeded(tenantID kernel.UUID, key string, fp Fingerprint, result Result, now time.Time) (Record, error) {
	if err := validate(tenantID, key, fp); err != nil {
		return Record{}, err
	}
	return Record{
		TenantID:    tenantID,
		Key:         key,
		Fingerprint: fp,
		Outcome:     Succeeded,
		Result:      result,
		CreatedAt:   now.UTC(),
	}, nil
}

// NewFailed records a rejected request so a retry replays the same error.
func NewFailed(tenantID kernel.UUID, key string, fp Fingerprint, cause error, now time.Time) (Record, error) {
	if err := validate(tenantID, key, fp); err != nil {
		return Record{}, err
	}
	if cause == nil {
		return Record{}, errs.NewValueIsRequiredError("failure cause")
	}
	return Record{
		TenantID:    tenantID,
		Key:         key,
		Fingerprint: fp,
		Outcome:     Failed,
		Failure:     errs.Describe(cause),
		CreatedAt:   now.UTC(),
	}, nil
}

// Replay returns the stored result, or the stored error rebuilt from its descriptor.
func (r Record) Replay() (Result, error) {
	if r.Outcome == Failed {
		return Result{}, r.Failure.Err()
	}
	return r.Result, nil
}

// Expired reports whether the record is older than retention at now.
func (r Record) Expired(now time.Time, retention time.Duration) bool {
	return now.Sub(r.CreatedAt) > retention
}

func validate(tenantID kernel.UUID, key string, fp Fingerprint) error {
	if key == "" {
		return errs.NewValueIsRequiredError("idempotency key")
	}
	if len(key) > 255 {
		return errs.NewValueIsOutOfRangeError("idempotency key length", len(key), 1, 255)
	}
	return errors.Join(tenantID.Validate(), fp.OrderID.Validate(), fp.ToStatus.Validate())
}
