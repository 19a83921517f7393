package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var (
	ErrResolveExceptionCommandIsNotConstructed = errors.New(
		"ResolveExceptionCommand must be created via NewResolveExceptionCommand constructor",
	)
)

// ResolveExceptionCommand clears exceptions raised on an order's items.
type ResolveExceptionCommand struct { //nolint:recvcheck //using for validation
	tenantID kernel.UUID
	orderID  kernel.UUID
	count    int

	guard guard.ConstructorGuard
}

func NewResolveExceptionCommand(tenantID, orderID kernel.UUID, count int) (ResolveExceptionCommand, error) {
	var problems []error
	problems = append(problems, tenantID.Validate(), orderID.Validate())
	if count < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("count", count, 1, "unbounded"))
	}
	if err := errors.Join(problems...); err != nil {
		return ResolveExceptionCommand{}, err
	}

	return ResolveExceptionCommand{
		tenantID: tenantID,
		orderID:  orderID,
		count:    count,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c ResolveExceptionCommand) Validate() error {
	return c.guard.Validate(ErrResolveExceptionCommandIsNotConstructed)
}

func (c ResolveExceptionCommand) TenantID() kernel.UUID { return c.tenantID }
func (c ResolveExceptionCommand) OrderID() kernel.UUID { return c.orderID }
func (c ResolveExceptionCommand) Count() int { return c.count }
