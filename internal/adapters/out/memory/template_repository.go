package memory

import (
	"context"
	"fmt"
	"sync"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"
)

type templateKey struct {
	tenantID kernel.UUID
	ref      workflow.Ref
}

// TemplateRepository keeps published templates in memory.
type TemplateRepository struct {
	mu        sync.RWMutex
	templates map[templateKey]workflow.Template
	active    map[kernel.UUID]workflow.Ref
	reads     int
}

func NewTemplateRepository() *TemplateRepository {
	return &TemplateRepository{
		templates: make(map[templateKey]workflow.Template),
		active:    make(map[kernel.UUID]workflow.Ref),
	}
}

func (r *TemplateRepository) Get(_ context.Context, tenantID kernel.UUID, ref workflow.Ref) (workflow.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	tpl, ok := r.templates[templateKey{tenantID: tenantID, ref: ref}]
	if !ok {
		return workflow.Template{}, errs.NewObjectNotFoundError("template", ref.String())
	}
	return tpl, nil
}

// Reads reports how many times Get was called. Tests use it to observe caching.
func (r *TemplateRepository) Reads() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reads
}

func (r *TemplateRepository) GetActive(_ context.Context, tenantID kernel.UUID) (workflow.Ref, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.active[tenantID]
	if !ok {
		return workflow.Ref{}, errs.NewObjectNotFoundError("active template", tenantID.String())
	}
	return ref, nil
}

func (r *TemplateRepository) LatestVersion(_ context.Context, tenantID kernel.UUID, code string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	latest := 0
	for k, tpl := range r.templates {
		if k.tenantID.IsEqual(tenantID) && tpl.Code() == code && tpl.Version() > latest {
			latest = tpl.Version()
		}
	}
	return latest, nil
}

func (r *TemplateRepository) Publish(_ context.Context, tpl workflow.Template) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.templates {
		if existing.TenantID().IsEqual(tpl.TenantID()) && existing.Code() == tpl.Code() && existing.Version() == tpl.Version() {
			return errs.NewVersionIsInvalidError("template version",
				fmt.Errorf("%s v%d is already published", tpl.Code(), tpl.Version()))
		}
	}
	r.templates[templateKey{tenantID: tpl.TenantID(), ref: tpl.Ref()}] = tpl
	r.active[tpl.TenantID()] = tpl.Ref()
	return nil
}

func (r *TemplateRepository) ListAutoAdvancing(_ context.Context) ([]workflow.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []workflow.Template
	for _, tpl := range r.templates {
		if len(tpl.AutoTransitions()) > 0 {
			out = append(out, tpl)
		}
	}
	return out, nil
}

type contractKey struct {
	tenantID kernel.UUID
	key      screen.Key
}

// ContractRepository keeps tenant screen contract overrides in memory.
type ContractRepository struct {
	mu        sync.RWMutex
	contracts map[contractKey]screen.Contract
}

func NewContractRepository() *ContractRepository {
	return &ContractRepository{contracts: make(map[contractKey]screen.Contract)}
}

func (r *ContractRepository) Get(_ context.Context, tenantID kernel.UUID, key screen.Key) (screen.Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[contractKey{tenantID: tenantID, key: key}]
	if !ok {
		return screen.Contract{}, errs.NewObjectNotFoundError("screen contract", key.String())
	}
	return c, nil
}

func (r *ContractRepository) Save(_ context.Context, tenantID kernel.UUID, contract screen.Contract) error {
	if contract.Key == "" {
		return errs.NewValueIsRequiredError("screen key")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts[contractKey{tenantID: tenantID, key: contract.Key}] = contract
	return nil
}
