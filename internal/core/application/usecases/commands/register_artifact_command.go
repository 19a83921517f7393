package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/artifact"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var (
	ErrRegisterArtifactCommandIsNotConstructed = errors.New(
		"RegisterArtifactCommand must be created via NewRegisterArtifactCommand constructor",
	)
)

// RegisterArtifactCommand attaches evidence to an order, typically a proof of
// delivery captured by the driver app or an invoice number from billing.
//
// Example:
//
//	cmd, err := NewRegisterArtifactCommand(tenantID, orderID, "pod", "s3://pod/7781.png")
type RegisterArtifactCommand struct { //nolint:recvcheck //using for validation
	tenantID  kernel.UUID
	orderID   kernel.UUID
	kind      artifact.Kind
	reference string

	guard guard.ConstructorGuard
}

func NewRegisterArtifactCommand(tenantID, orderID kernel.UUID, kind, reference string) (RegisterArtifactCommand, error) {
	var problems []error
	problems = append(problems, tenantID.Validate(), orderID.Validate())

	parsed, err := artifact.ParseKind(kind)
	problems = append(problems, err)
	if reference == "" {
		problems = append(problems, errs.NewValueIsRequiredError("reference"))
	}
	if err = errors.Join(problems...); err != nil {
		return RegisterArtifactCommand{}, err
	}

	return RegisterArtifactCommand{
		tenantID:  tenantID,
		orderID:   orderID,
		kind:      parsed,
		reference: reference,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c RegisterArtifactCommand) Validate() error {
	return c.guard.Validate(ErrRegisterArtifactCommandIsNotConstructed)
}

func (c RegisterArtifactCommand) TenantID() kernel.UUID { return c.tenantID }
func (c RegisterArtifactCommand) OrderID() kernel.UUID { return c.orderID }
func (c RegisterArtifactCommand) Kind() artifact.Kind { return c.kind }
func (c RegisterArtifactCommand) Reference() string { return c.reference }
