package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/guard"
)

var (
	ErrRecordItemScanCommandIsNotConstructed = errors.New(
		"RecordItemScanCommand must be created via NewRecordItemScanCommand constructor",
	)
)

// RecordItemScanCommand counts one scanned garment. A scan may flag the
// garment as an exception (stain, damage) which blocks the order until it is
// resolved.
type RecordItemScanCommand struct { //nolint:recvcheck //using for validation
	tenantID  kernel.UUID
	orderID   kernel.UUID
	tag       string
	exception bool

	guard guard.ConstructorGuard
}

// NewRecordItemScanCommand creates a scan. The tag is the scanned label and is
// optional.
func NewRecordItemScanCommand(tenantID, orderID kernel.UUID, tag string, exception bool) (RecordItemScanCommand, error) {
	if err := errors.Join(tenantID.Validate(), orderID.Validate()); err != nil {
		return RecordItemScanCommand{}, err
	}
	return RecordItemScanCommand{
		tenantID:  tenantID,
		orderID:   orderID,
		tag:       tag,
		exception: exception,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c RecordItemScanCommand) Validate() error {
	return c.guard.Validate(ErrRecordItemScanCommandIsNotConstructed)
}

func (c RecordItemScanCommand) TenantID() kernel.UUID { return c.tenantID }
func (c RecordItemScanCommand) OrderID() kernel.UUID { return c.orderID }
func (c RecordItemScanCommand) Tag() string { return c.tag }
func (c RecordItemScanCommand) Exception() bool { return c.exception }
