package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrTotalItemsIsInvalid = errors.New("total items must be greater than 0")
)

// CreateOrderCommand registers a new order with the tenant's active workflow.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(tenantID, kernel.NewUUID(), 3,
//	    []order.RetailLine{{SKU: "HANGER-01", Quantity: 3}})
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	handler := NewCreateOrderCommandHandler(eng.Graph(), uowFactory)
//	o, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	tenantID    kernel.UUID
	orderID     kernel.UUID
	totalItems  int
	retailLines []order.RetailLine

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates identifiers and the item count. Retail lines
// are validated by the order itself.
func NewCreateOrderCommand(
	tenantID, orderID kernel.UUID,
	totalItems int,
	retailLines []order.RetailLine,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		retailLines: append([]order.RetailLine(nil), retailLines...),
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setIDs(tenantID, orderID),
		cmd.setTotalItems(totalItems),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateOrderCommandIsNotConstructed if validation fails.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) TenantID() kernel.UUID {
	return c.tenantID
}

// OrderID returns the unique identifier for the order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// TotalItems returns the number of garments received.
func (c CreateOrderCommand) TotalItems() int {
	return c.totalItems
}

// RetailLines returns the retail items sold with the order.
func (c CreateOrderCommand) RetailLines() []order.RetailLine {
	return append([]order.RetailLine(nil), c.retailLines...)
}

func (c *CreateOrderCommand) setIDs(tenantID, orderID kernel.UUID) error {
	if err := errors.Join(tenantID.Validate(), orderID.Validate()); err != nil {
		return err
	}

	c.tenantID, c.orderID = tenantID, orderID
	return nil
}

func (c *CreateOrderCommand) setTotalItems(total int) error {
	if total <= 0 {
		return ErrTotalItemsIsInvalid
	}

	c.totalItems = total
	return nil
}
