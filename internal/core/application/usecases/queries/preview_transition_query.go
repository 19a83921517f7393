package queries

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var (
	ErrPreviewTransitionQueryIsNotConstructed = errors.New(
		"PreviewTransitionQuery must be created via NewPreviewTransitionQuery constructor",
	)
)

// PreviewTransitionQuery runs the transition validator for a prospective
// request, including its input, without executing anything.
type PreviewTransitionQuery struct {
	tenantID kernel.UUID
	orderID  kernel.UUID
	screen   screen.Key
	from     workflow.StatusCode
	to       workflow.StatusCode
	actor    kernel.Actor
	input    screen.Input

	guard guard.ConstructorGuard
}

// NewPreviewTransitionQuery requires the target; from is optional.
func NewPreviewTransitionQuery(
	tenantID, orderID kernel.UUID,
	key screen.Key,
	from, to workflow.StatusCode,
	actor kernel.Actor,
	input screen.Input,
) (PreviewTransitionQuery, error) {
	var problems []error
	problems = append(problems, tenantID.Validate(), orderID.Validate(), actor.Validate(), to.Validate())
	if key == "" {
		problems = append(problems, errs.NewValueIsRequiredError("screen"))
	}
	if from != "" {
		problems = append(problems, from.Validate())
	}
	if err := errors.Join(problems...); err != nil {
		return PreviewTransitionQuery{}, err
	}

	return PreviewTransitionQuery{
		tenantID: tenantID,
		orderID:  orderID,
		screen:   key,
		from:     from,
		to:       to,
		actor:    actor,
		input:    input.Clone(),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q PreviewTransitionQuery) Validate() error {
	return q.guard.Validate(ErrPreviewTransitionQueryIsNotConstructed)
}

// PreviewTransitionQueryResponse is the validator's verdict. A rejected
// preview is a normal response, not an error.
type PreviewTransitionQueryResponse struct {
	Allowed       bool
	Code          errs.Code
	Reason        string
	PreConditions []string
	Effects       []workflow.Effect
}
