package commands

import (
	"errors"
	"time"

	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var (
	ErrPurgeIdempotencyRecordsCommandIsNotConstructed = errors.New(
		"PurgeIdempotencyRecordsCommand must be created via NewPurgeIdempotencyRecordsCommand constructor",
	)
)

// PurgeIdempotencyRecordsCommand removes idempotency records older than the
// retention window. A key reused after its record was purged executes again.
type PurgeIdempotencyRecordsCommand struct { //nolint:recvcheck //using for validation
	retention time.Duration
	guard     guard.ConstructorGuard
}

func NewPurgeIdempotencyRecordsCommand(retention time.Duration) (PurgeIdempotencyRecordsCommand, error) {
	if retention <= 0 {
		return PurgeIdempotencyRecordsCommand{}, errs.NewValueIsOutOfRangeError("retention", retention, "1ns", "unbounded")
	}
	return PurgeIdempotencyRecordsCommand{retention: retention, guard: guard.NewConstructorGuard()}, nil
}

func (c PurgeIdempotencyRecordsCommand) Validate() error {
	return c.guard.Validate(ErrPurgeIdempotencyRecordsCommandIsNotConstructed)
}

func (c PurgeIdempotencyRecordsCommand) Retention() time.Duration {
	return c.retention
}
