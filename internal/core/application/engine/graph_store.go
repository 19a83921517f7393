package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"golang.org/x/sync/singleflight"
)

type templateKey struct {
	tenantID kernel.UUID
	ref      workflow.Ref
}

// GraphStore is a read-through cache over the template repository. Template
// versions are immutable so cached entries never go stale; only the active
// version pointer of a tenant is invalidated, when a new version is published.
type GraphStore struct {
	repo   ports.TemplateRepository
	logger *slog.Logger

	mu        sync.RWMutex
	templates map[templateKey]workflow.Template
	active    map[kernel.UUID]workflow.Ref

	group singleflight.Group
}

func NewGraphStore(repo ports.TemplateRepository, logger *slog.Logger) *GraphStore {
	return &GraphStore{
		repo:      repo,
		logger:    logger.With("component", "graph_store"),
		templates: make(map[templateKey]workflow.Template),
		active:    make(map[kernel.UUID]workflow.Ref),
	}
}

// ResolveTemplate returns the exact template version an order is pinned to.
// Fails with UnknownTemplateError when the tenant has no such version.
func (s *GraphStore) ResolveTemplate(ctx context.Context, tenantID kernel.UUID, ref workflow.Ref) (workflow.Template, error) {
	key := templateKey{tenantID: tenantID, ref: ref}

	s.mu.RLock()
	tpl, ok := s.templates[key]
	s.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	// Shared by every waiting caller, so not bound to the first one's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(fmt.Sprintf("tpl:%s:%s", tenantID, ref), func() (any, error) {
		loaded, loadErr := s.repo.Get(loadCtx, tenantID, ref)
		if loadErr != nil {
			return workflow.Template{}, loadErr
		}
		s.mu.Lock()
		s.templates[key] = loaded
		s.mu.Unlock()
		s.logger.Debug("template cached", "tenant_id", tenantID.String(), "template", ref.String())
		return loaded, nil
	})
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return workflow.Template{}, errs.NewUnknownTemplateError(tenantID.String(), ref.String())
		}
		return workflow.Template{}, err
	}

	return v.(workflow.Template), nil
}

// ActiveTemplate returns the template new orders of the tenant are created with.
func (s *GraphStore) ActiveTemplate(ctx context.Context, tenantID kernel.UUID) (workflow.Template, error) {
	s.mu.RLock()
	ref, ok := s.active[tenantID]
	s.mu.RUnlock()

	if !ok {
		loadCtx := context.WithoutCancel(ctx)
		v, err, _ := s.group.Do("active:"+tenantID.String(), func() (any, error) {
			loaded, loadErr := s.repo.GetActive(loadCtx, tenantID)
			if loadErr != nil {
				return workflow.Ref{}, loadErr
			}
			s.mu.Lock()
			s.active[tenantID] = loaded
			s.mu.Unlock()
			return loaded, nil
		})
		if err != nil {
			if errors.Is(err, errs.ErrObjectNotFound) {
				return workflow.Template{}, errs.NewUnknownTemplateError(tenantID.String(), "active")
			}
			return workflow.Template{}, err
		}
		ref = v.(workflow.Ref)
	}

	return s.ResolveTemplate(ctx, tenantID, ref)
}

// Publish stores a new template version, makes it active for its tenant and
// refreshes the cached pointer. Orders already pinned to older versions are
// unaffected.
func (s *GraphStore) Publish(ctx context.Context, tpl workflow.Template) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	if err := s.repo.Publish(ctx, tpl); err != nil {
		return err
	}

	s.mu.Lock()
	s.templates[templateKey{tenantID: tpl.TenantID(), ref: tpl.Ref()}] = tpl
	s.active[tpl.TenantID()] = tpl.Ref()
	s.mu.Unlock()

	s.logger.Info("template published",
		"tenant_id", tpl.TenantID().String(), "code", tpl.Code(), "version", tpl.Version())
	return nil
}

// Invalidate forgets the tenant's active pointer so the next lookup reloads it.
func (s *GraphStore) Invalidate(tenantID kernel.UUID) {
	s.mu.Lock()
	delete(s.active, tenantID)
	s.mu.Unlock()
}
