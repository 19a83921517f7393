package engine

import (
	"context"
	"errors"
	"fmt"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// ContractResolver maps a screen key to its contract. Tenant overrides stored
// in the repository win over the built-in contracts. It does not check
// permissions; that is the screen adapter's job.
type ContractResolver struct {
	repo     ports.ContractRepository
	registry *screen.Registry
	defaults map[screen.Key]screen.Contract
}

// NewContractResolver creates a resolver. repo may be nil, in which case only
// the built-in contracts are served.
func NewContractResolver(repo ports.ContractRepository, registry *screen.Registry) *ContractResolver {
	defaults := make(map[screen.Key]screen.Contract)
	for _, c := range screen.DefaultContracts() {
		defaults[c.Key] = c
	}
	return &ContractResolver{repo: repo, registry: registry, defaults: defaults}
}

// ResolveContract returns the contract for key in the tenant.
// Unknown screens fail with ValueIsInvalidError.
func (r *ContractResolver) ResolveContract(ctx context.Context, tenantID kernel.UUID, key screen.Key) (screen.Contract, error) {
	if key == "" {
		return screen.Contract{}, errs.NewValueIsRequiredError("screen")
	}

	if r.repo != nil {
		c, err := r.repo.Get(ctx, tenantID, key)
		switch {
		case err == nil:
			if validateErr := c.Validate(r.registry); validateErr != nil {
				return screen.Contract{}, validateErr
			}
			return c, nil
		case !errors.Is(err, errs.ErrObjectNotFound):
			return screen.Contract{}, err
		}
	}

	c, ok := r.defaults[key]
	if !ok {
		return screen.Contract{}, errs.NewValueIsInvalidErrorWithCause("screen", fmt.Errorf("unknown screen %q", key))
	}
	return c, nil
}
