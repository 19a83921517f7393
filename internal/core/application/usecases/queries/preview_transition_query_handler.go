package queries

import (
	"context"
	"errors"

	"orderflow/internal/core/application/engine"
	"orderflow/internal/pkg/errs"
)

// previewKey satisfies request validation; previews never reach the controller.
const previewKey = "preview"

type PreviewTransitionQueryHandler struct {
	advisor TransitionAdvisor
}

func NewPreviewTransitionQueryHandler(advisor TransitionAdvisor) PreviewTransitionQueryHandler {
	return PreviewTransitionQueryHandler{advisor: advisor}
}

// Handle reports caller-input rejections inside the response and returns
// every other failure (unknown order, unknown template) as an error.
func (h PreviewTransitionQueryHandler) Handle(
	ctx context.Context,
	query PreviewTransitionQuery,
) (PreviewTransitionQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return PreviewTransitionQueryResponse{}, err
	}

	result, err := h.advisor.Preview(ctx, engine.TransitionRequest{
		TenantID:       query.tenantID,
		OrderID:        query.orderID,
		Screen:         query.screen,
		FromStatus:     query.from,
		ToStatus:       query.to,
		Actor:          query.actor,
		Input:          query.input.Clone(),
		IdempotencyKey: previewKey,
	})
	switch {
	case err == nil:
		return PreviewTransitionQueryResponse{
			Allowed:       true,
			PreConditions: result.PreConditions,
			Effects:       result.Transition.Effects,
		}, nil
	case errs.IsCallerInputError(err) || errors.Is(err, errs.ErrStaleState):
		return PreviewTransitionQueryResponse{Code: errs.CodeOf(err), Reason: err.Error()}, nil
	default:
		return PreviewTransitionQueryResponse{}, err
	}
}
