package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var (
	ErrExecuteTransitionCommandIsNotConstructed = errors.New(
		"ExecuteTransitionCommand must be created via NewExecuteTransitionCommand constructor",
	)
)

// ExecuteTransitionCommand is the generic transition: the caller names the
// screen, the status it saw and the status it wants. It is the way to pick a
// branch on multi-destination screens such as qa rework. A single-destination
// screen still only reaches its own target.
type ExecuteTransitionCommand struct { //nolint:recvcheck //using for validation
	tenantID       kernel.UUID
	orderID        kernel.UUID
	screen         screen.Key
	actor          kernel.Actor
	idempotencyKey string
	target         TransitionTarget
	input          screen.Input

	guard guard.ConstructorGuard
}

// NewExecuteTransitionCommand requires both target.From and target.To.
func NewExecuteTransitionCommand(
	tenantID, orderID kernel.UUID,
	key screen.Key,
	actor kernel.Actor,
	idempotencyKey string,
	target TransitionTarget,
	input screen.Input,
) (ExecuteTransitionCommand, error) {
	cmd := ExecuteTransitionCommand{
		tenantID:       tenantID,
		orderID:        orderID,
		screen:         key,
		actor:          actor,
		idempotencyKey: idempotencyKey,
		input:          input.Clone(),
		guard:          guard.NewConstructorGuard(),
	}

	var problems []error
	problems = append(problems, tenantID.Validate(), orderID.Validate(), actor.Validate())
	if key == "" {
		problems = append(problems, errs.NewValueIsRequiredError("screen"))
	}
	if idempotencyKey == "" {
		problems = append(problems, errs.NewValueIsRequiredError("idempotency key"))
	}
	problems = append(problems, setTarget(&cmd.target, target, true))
	if err := errors.Join(problems...); err != nil {
		return ExecuteTransitionCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ExecuteTransitionCommand) Validate() error {
	return c.guard.Validate(ErrExecuteTransitionCommandIsNotConstructed)
}

func (c ExecuteTransitionCommand) TenantID() kernel.UUID { return c.tenantID }
func (c ExecuteTransitionCommand) OrderID() kernel.UUID { return c.orderID }
func (c ExecuteTransitionCommand) Screen() screen.Key { return c.screen }
func (c ExecuteTransitionCommand) Actor() kernel.Actor { return c.actor }
func (c ExecuteTransitionCommand) IdempotencyKey() string { return c.idempotencyKey }
func (c ExecuteTransitionCommand) Target() TransitionTarget { return c.target }
func (c ExecuteTransitionCommand) Input() screen.Input { return c.input.Clone() }
