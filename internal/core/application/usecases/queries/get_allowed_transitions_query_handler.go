package queries

import (
	"context"
)

// GetAllowedTransitionsQueryHandler evaluates every outgoing edge through the
// same validator the engine uses, so a transition reported as allowed passes
// validation unless the order changes in between.
type GetAllowedTransitionsQueryHandler struct {
	advisor TransitionAdvisor
}

func NewGetAllowedTransitionsQueryHandler(advisor TransitionAdvisor) GetAllowedTransitionsQueryHandler {
	return GetAllowedTransitionsQueryHandler{advisor: advisor}
}

func (h GetAllowedTransitionsQueryHandler) Handle(
	ctx context.Context,
	query GetAllowedTransitionsQuery,
) (GetAllowedTransitionsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetAllowedTransitionsQueryResponse{}, err
	}

	o, evaluated, err := h.advisor.AllowedTransitions(ctx, query.tenantID, query.orderID, query.screen, query.actor)
	if err != nil {
		return GetAllowedTransitionsQueryResponse{}, err
	}

	transitions := make([]AllowedTransition, 0, len(evaluated))
	for _, e := range evaluated {
		transitions = append(transitions, AllowedTransition{
			To:      e.To,
			Allowed: e.Allowed,
			Code:    e.Code,
			Reason:  e.Reason,
		})
	}

	return GetAllowedTransitionsQueryResponse{
		OrderID:     o.ID(),
		Status:      o.Status(),
		Phase:       o.Phase(),
		Version:     o.Version(),
		Transitions: transitions,
	}, nil
}
