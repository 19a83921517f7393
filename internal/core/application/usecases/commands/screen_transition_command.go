package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var (
	ErrScreenTransitionCommandIsNotConstructed = errors.New(
		"ScreenTransitionCommand must be created via NewScreenTransitionCommand constructor",
	)
)

// TransitionTarget carries the optional state the caller believes the order is in
// and the status it wants. Single-destination screens may leave To empty.
type TransitionTarget struct {
	From            workflow.StatusCode
	To              workflow.StatusCode
	ExpectedVersion *int64
}

// ScreenTransitionCommand is what a screen submits when an operator presses its
// primary action.
//
// Example:
//
//	actor, _ := kernel.NewHumanActor("u-17")
//	cmd, err := NewScreenTransitionCommand(tenantID, orderID, screen.Intake, actor,
//	    "9d1c6a", TransitionTarget{}, screen.Input{"note": "bag 4"})
//	if err != nil {
//	    return err
//	}
//
//	res, err := handler.Handle(ctx, cmd)
type ScreenTransitionCommand struct { //nolint:recvcheck //using for validation
	tenantID       kernel.UUID
	orderID        kernel.UUID
	screen         screen.Key
	actor          kernel.Actor
	idempotencyKey string
	target         TransitionTarget
	input          screen.Input

	guard guard.ConstructorGuard
}

// NewScreenTransitionCommand validates the shape of a screen submission.
// Whether the screen may move the order is decided by the handler.
func NewScreenTransitionCommand(
	tenantID, orderID kernel.UUID,
	key screen.Key,
	actor kernel.Actor,
	idempotencyKey string,
	target TransitionTarget,
	input screen.Input,
) (ScreenTransitionCommand, error) {
	cmd := ScreenTransitionCommand{
		input: input.Clone(),
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setIDs(tenantID, orderID),
		cmd.setScreen(key),
		cmd.setActor(actor),
		cmd.setIdempotencyKey(idempotencyKey),
		cmd.setTarget(target),
	); err != nil {
		return ScreenTransitionCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ScreenTransitionCommand) Validate() error {
	return c.guard.Validate(ErrScreenTransitionCommandIsNotConstructed)
}

func (c ScreenTransitionCommand) TenantID() kernel.UUID { return c.tenantID }
func (c ScreenTransitionCommand) OrderID() kernel.UUID { return c.orderID }
func (c ScreenTransitionCommand) Screen() screen.Key { return c.screen }
func (c ScreenTransitionCommand) Actor() kernel.Actor { return c.actor }
func (c ScreenTransitionCommand) IdempotencyKey() string { return c.idempotencyKey }
func (c ScreenTransitionCommand) Target() TransitionTarget { return c.target }
func (c ScreenTransitionCommand) Input() screen.Input { return c.input.Clone() }

func (c *ScreenTransitionCommand) setIDs(tenantID, orderID kernel.UUID) error {
	if err := errors.Join(tenantID.Validate(), orderID.Validate()); err != nil {
		return err
	}
	c.tenantID, c.orderID = tenantID, orderID
	return nil
}

func (c *ScreenTransitionCommand) setScreen(key screen.Key) error {
	if key == "" {
		return errs.NewValueIsRequiredError("screen")
	}
	c.screen = key
	return nil
}

func (c *ScreenTransitionCommand) setActor(actor kernel.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	c.actor = actor
	return nil
}

func (c *ScreenTransitionCommand) setIdempotencyKey(key string) error {
	if key == "" {
		return errs.NewValueIsRequiredError("idempotency key")
	}
	c.idempotencyKey = key
	return nil
}

func (c *ScreenTransitionCommand) setTarget(target TransitionTarget) error {
	return setTarget(&c.target, target, false)
}

func setTarget(dst *TransitionTarget, target TransitionTarget, explicit bool) error {
	var problems []error
	if target.From != "" || explicit {
		problems = append(problems, target.From.Validate())
	}
	if target.To != "" || explicit {
		problems = append(problems, target.To.Validate())
	}
	if target.ExpectedVersion != nil && *target.ExpectedVersion < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("expectedVersion", *target.ExpectedVersion, 1, "unbounded"))
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}
	*dst = target
	return nil
}
