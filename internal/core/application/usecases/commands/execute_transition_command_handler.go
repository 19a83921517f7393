package commands

import (
	"context"

	"orderflow/internal/core/application/engine"
	"orderflow/internal/core/ports"
)

// ExecuteTransitionCommandHandler checks the screen's permissions and hands the
// request to the engine unchanged.
type ExecuteTransitionCommandHandler struct {
	engine    TransitionEngine
	contracts ContractResolver
	policy    ports.PolicyEngine
}

func NewExecuteTransitionCommandHandler(
	engine TransitionEngine,
	contracts ContractResolver,
	policy ports.PolicyEngine,
) ExecuteTransitionCommandHandler {
	return ExecuteTransitionCommandHandler{engine: engine, contracts: contracts, policy: policy}
}

func (h *ExecuteTransitionCommandHandler) Handle(
	ctx context.Context,
	cmd ExecuteTransitionCommand,
) (engine.TransitionResult, error) {
	if err := cmd.Validate(); err != nil {
		return engine.TransitionResult{}, err
	}

	contract, err := h.contracts.ResolveContract(ctx, cmd.TenantID(), cmd.Screen())
	if err != nil {
		return engine.TransitionResult{}, err
	}
	if err = authorize(ctx, h.policy, cmd.Actor(), cmd.TenantID(), cmd.OrderID(), contract); err != nil {
		return engine.TransitionResult{}, err
	}

	target := cmd.Target()
	return h.engine.Transition(ctx, engine.TransitionRequest{
		TenantID:        cmd.TenantID(),
		OrderID:         cmd.OrderID(),
		Screen:          cmd.Screen(),
		FromStatus:      target.From,
		ToStatus:        target.To,
		ExpectedVersion: target.ExpectedVersion,
		Actor:           cmd.Actor(),
		Input:           cmd.Input(),
		IdempotencyKey:  cmd.IdempotencyKey(),
	})
}
