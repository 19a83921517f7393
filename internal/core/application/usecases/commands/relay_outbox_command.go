package commands

import (
	"errors"

	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var (
	ErrRelayOutboxCommandIsNotConstructed = errors.New(
		"RelayOutboxCommand must be created via NewRelayOutboxCommand constructor",
	)
)

// RelayOutboxCommand delivers one batch of pending outbox entries.
type RelayOutboxCommand struct { //nolint:recvcheck //using for validation
	batchSize   int
	maxAttempts int

	guard guard.ConstructorGuard
}

// NewRelayOutboxCommand takes the batch size and the number of failed relay
// passes after which an entry is given up on.
func NewRelayOutboxCommand(batchSize, maxAttempts int) (RelayOutboxCommand, error) {
	var problems []error
	if batchSize < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("batchSize", batchSize, 1, "unbounded"))
	}
	if maxAttempts < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("maxAttempts", maxAttempts, 1, "unbounded"))
	}
	if err := errors.Join(problems...); err != nil {
		return RelayOutboxCommand{}, err
	}
	return RelayOutboxCommand{batchSize: batchSize, maxAttempts: maxAttempts, guard: guard.NewConstructorGuard()}, nil
}

func (c RelayOutboxCommand) Validate() error {
	return c.guard.Validate(ErrRelayOutboxCommandIsNotConstructed)
}

func (c RelayOutboxCommand) BatchSize() int { return c.batchSize }
func (c RelayOutboxCommand) MaxAttempts() int { return c.maxAttempts }
