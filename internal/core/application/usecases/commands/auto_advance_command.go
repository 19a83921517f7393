package commands

import (
	"errors"

	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var (
	ErrAutoAdvanceCommandIsNotConstructed = errors.New(
		"AutoAdvanceCommand must be created via NewAutoAdvanceCommand constructor",
	)
)

// AutoAdvanceCommand moves orders along edges flagged AutoWhenDone once their
// pre-conditions hold.
type AutoAdvanceCommand struct { //nolint:recvcheck //using for validation
	limit int
	guard guard.ConstructorGuard
}

// NewAutoAdvanceCommand takes the maximum number of orders examined per edge.
func NewAutoAdvanceCommand(limit int) (AutoAdvanceCommand, error) {
	if limit < 1 {
		return AutoAdvanceCommand{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, "unbounded")
	}
	return AutoAdvanceCommand{limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (c AutoAdvanceCommand) Validate() error {
	return c.guard.Validate(ErrAutoAdvanceCommandIsNotConstructed)
}

func (c AutoAdvanceCommand) Limit() int {
	return c.limit
}
