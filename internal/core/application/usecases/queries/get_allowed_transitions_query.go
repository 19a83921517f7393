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
	ErrGetAllowedTransitionsQueryIsNotConstructed = errors.New(
		"GetAllowedTransitionsQuery must be created via NewGetAllowedTransitionsQuery constructor",
	)
)

// GetAllowedTransitionsQuery asks which targets a screen could move an order
// to right now. Screens use it to enable or disable their buttons and to show
// why a button is disabled.
//
// Example:
//
//	query, _ := NewGetAllowedTransitionsQuery(tenantID, orderID, screen.Processing, actor)
//	res, err := handler.Handle(ctx, query)
//	for _, tr := range res.Transitions {
//	    fmt.Printf("%s allowed=%t %s\n", tr.To, tr.Allowed, tr.Reason)
//	}
type GetAllowedTransitionsQuery struct {
	tenantID kernel.UUID
	orderID  kernel.UUID
	screen   screen.Key
	actor    kernel.Actor

	guard guard.ConstructorGuard
}

func NewGetAllowedTransitionsQuery(
	tenantID, orderID kernel.UUID,
	key screen.Key,
	actor kernel.Actor,
) (GetAllowedTransitionsQuery, error) {
	var problems []error
	problems = append(problems, tenantID.Validate(), orderID.Validate(), actor.Validate())
	if key == "" {
		problems = append(problems, errs.NewValueIsRequiredError("screen"))
	}
	if err := errors.Join(problems...); err != nil {
		return GetAllowedTransitionsQuery{}, err
	}

	return GetAllowedTransitionsQuery{
		tenantID: tenantID,
		orderID:  orderID,
		screen:   key,
		actor:    actor,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetAllowedTransitionsQuery) Validate() error {
	return q.guard.Validate(ErrGetAllowedTransitionsQueryIsNotConstructed)
}

// AllowedTransition is one outgoing edge of the order's current status.
// Code and Reason explain a disallowed edge.
type AllowedTransition struct {
	To      workflow.StatusCode
	Allowed bool
	Code    errs.Code
	Reason  string
}

// GetAllowedTransitionsQueryResponse describes the order as the screen sees it.
type GetAllowedTransitionsQueryResponse struct {
	OrderID     kernel.UUID
	Status      workflow.StatusCode
	Phase       workflow.Phase
	Version     int64
	Transitions []AllowedTransition
}
