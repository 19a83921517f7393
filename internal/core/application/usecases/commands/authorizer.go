package commands

import (
	"context"
	"fmt"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// authorize asks the policy engine for every permission the screen requires.
// System actors are not subject to tenant policies.
func authorize(
	ctx context.Context,
	policy ports.PolicyEngine,
	actor kernel.Actor,
	tenantID, orderID kernel.UUID,
	contract screen.Contract,
) error {
	if actor.IsSystem() {
		return nil
	}
	for _, permission := range contract.RequiredPermissions {
		allowed, err := policy.Allowed(ctx, ports.PolicyRequest{
			UserID:     actor.ID,
			TenantID:   tenantID,
			Permission: permission,
			ResourceID: orderID.String(),
		})
		if err != nil {
			return fmt.Errorf("policy check %s: %w", permission, err)
		}
		if !allowed {
			return errs.NewPermissionDeniedError(actor.ID, permission)
		}
	}
	return nil
}
