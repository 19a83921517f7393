package commands

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/artifact"
)

// RegisterArtifactCommandHandler stores evidence for an existing order.
type RegisterArtifactCommandHandler struct {
	uowFactory EvidenceUoWFactory
}

func NewRegisterArtifactCommandHandler(uowFactory EvidenceUoWFactory) RegisterArtifactCommandHandler {
	return RegisterArtifactCommandHandler{uowFactory: uowFactory}
}

// Handle fails with errs.ObjectNotFoundError when the order does not belong to
// the tenant.
func (h *RegisterArtifactCommandHandler) Handle(ctx context.Context, cmd RegisterArtifactCommand) (artifact.Artifact, error) {
	if err := cmd.Validate(); err != nil {
		return artifact.Artifact{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return artifact.Artifact{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().Get(ctx, cmd.TenantID(), cmd.OrderID())
	if err != nil {
		return artifact.Artifact{}, err
	}

	a, err := artifact.NewArtifact(o.TenantID(), o.ID(), cmd.Kind(), cmd.Reference(), time.Now())
	if err != nil {
		return artifact.Artifact{}, err
	}

	if err = uow.ArtifactRepository().Add(ctx, a); err != nil {
		return artifact.Artifact{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return artifact.Artifact{}, err
	}

	return a, nil
}
