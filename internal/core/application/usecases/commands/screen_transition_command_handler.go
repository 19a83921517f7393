package commands

import (
	"context"
	"fmt"

	"orderflow/internal/core/application/engine"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// ScreenTransitionCommandHandler is the adapter every operator screen goes
// through. It only resolves the screen's target, checks permissions and
// delegates to the engine.
//
// Example:
//
//	handler := NewScreenTransitionCommandHandler(eng, eng.Contracts(), policy, uowFactory)
//	res, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrPreConditionNotMet) {
//	    // show the reason to the operator
//	}
type ScreenTransitionCommandHandler struct {
	engine     TransitionEngine
	contracts  ContractResolver
	policy     ports.PolicyEngine
	uowFactory OrderUoWFactory
}

// NewScreenTransitionCommandHandler creates the screen adapter.
func NewScreenTransitionCommandHandler(
	engine TransitionEngine,
	contracts ContractResolver,
	policy ports.PolicyEngine,
	uowFactory OrderUoWFactory,
) ScreenTransitionCommandHandler {
	return ScreenTransitionCommandHandler{
		engine:     engine,
		contracts:  contracts,
		policy:     policy,
		uowFactory: uowFactory,
	}
}

// Handle runs the screen's transition.
//
// Single-destination screens move the order to their fixed target; a caller
// supplied target must agree with it. Multi-destination screens require one.
// When the caller did not say which status it saw, the current status is used.
func (h *ScreenTransitionCommandHandler) Handle(
	ctx context.Context,
	cmd ScreenTransitionCommand,
) (engine.TransitionResult, error) {
	if err := cmd.Validate(); err != nil {
		return engine.TransitionResult{}, err
	}

	contract, err := h.contracts.ResolveContract(ctx, cmd.TenantID(), cmd.Screen())
	if err != nil {
		return engine.TransitionResult{}, err
	}

	target := cmd.Target()
	to, err := targetOf(contract, target.To)
	if err != nil {
		return engine.TransitionResult{}, err
	}

	if err = authorize(ctx, h.policy, cmd.Actor(), cmd.TenantID(), cmd.OrderID(), contract); err != nil {
		return engine.TransitionResult{}, err
	}

	from := target.From
	if from == "" {
		current, getErr := h.uowFactory.Create().OrderRepository().Get(ctx, cmd.TenantID(), cmd.OrderID())
		if getErr != nil {
			return engine.TransitionResult{}, getErr
		}
		from = current.Status()
	}

	return h.engine.Transition(ctx, engine.TransitionRequest{
		TenantID:        cmd.TenantID(),
		OrderID:         cmd.OrderID(),
		Screen:          cmd.Screen(),
		FromStatus:      from,
		ToStatus:        to,
		ExpectedVersion: target.ExpectedVersion,
		Actor:           cmd.Actor(),
		Input:           cmd.Input(),
		IdempotencyKey:  cmd.IdempotencyKey(),
	})
}

func targetOf(contract screen.Contract, requested workflow.StatusCode) (workflow.StatusCode, error) {
	if contract.IsMultiDestination() {
		if requested == "" {
			return "", errs.NewValueIsRequiredErrorWithCause("toStatus",
				fmt.Errorf("screen %s moves orders to more than one status", contract.Key))
		}
		return requested, nil
	}
	if requested != "" && requested != contract.FixedTarget {
		return "", errs.NewValueIsInvalidErrorWithCause("toStatus",
			fmt.Errorf("screen %s only moves orders to %s", contract.Key, contract.FixedTarget))
	}
	return contract.FixedTarget, nil
}
