package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var (
	ErrPublishTemplateCommandIsNotConstructed = errors.New(
		"PublishTemplateCommand must be created via NewPublishTemplateCommand constructor",
	)
)

// PublishTemplateCommand publishes a new version of a tenant's workflow.
// Orders already pinned to an older version keep using it.
//
// Example:
//
//	stages, transitions := workflow.DefaultDefinition()
//	cmd, err := NewPublishTemplateCommand(tenantID, workflow.DefaultTemplateCode, stages, transitions)
type PublishTemplateCommand struct { //nolint:recvcheck //using for validation
	tenantID    kernel.UUID
	code        string
	stages      []workflow.Stage
	transitions []workflow.Transition

	guard guard.ConstructorGuard
}

// NewPublishTemplateCommand checks the inputs are present. The graph itself is
// validated when the template is built.
func NewPublishTemplateCommand(
	tenantID kernel.UUID,
	code string,
	stages []workflow.Stage,
	transitions []workflow.Transition,
) (PublishTemplateCommand, error) {
	var problems []error
	problems = append(problems, tenantID.Validate())
	if code == "" {
		problems = append(problems, errs.NewValueIsRequiredError("template code"))
	}
	if len(stages) == 0 {
		problems = append(problems, errs.NewValueIsRequiredError("template stages"))
	}
	if err := errors.Join(problems...); err != nil {
		return PublishTemplateCommand{}, err
	}

	return PublishTemplateCommand{
		tenantID:    tenantID,
		code:        code,
		stages:      append([]workflow.Stage(nil), stages...),
		transitions: append([]workflow.Transition(nil), transitions...),
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c PublishTemplateCommand) Validate() error {
	return c.guard.Validate(ErrPublishTemplateCommandIsNotConstructed)
}

func (c PublishTemplateCommand) TenantID() kernel.UUID { return c.tenantID }
func (c PublishTemplateCommand) Code() string { return c.code }

func (c PublishTemplateCommand) Stages() []workflow.Stage {
	return append([]workflow.Stage(nil), c.stages...)
}

func (c PublishTemplateCommand) Transitions() []workflow.Transition {
	return append([]workflow.Transition(nil), c.transitions...)
}
