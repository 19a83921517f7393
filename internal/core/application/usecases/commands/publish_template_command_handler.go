package commands

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"
)

// PublishTemplateCommandHandler numbers the new version after the latest one
// stored under the same code and publishes it through the graph store, which
// also drops the tenant's cached active pointer.
//
// Two concurrent publishes of the same code race on the version number; the
// loser fails with errs.VersionIsInvalidError and can simply retry.
type PublishTemplateCommandHandler struct {
	versions  TemplateVersions
	publisher TemplatePublisher
}

func NewPublishTemplateCommandHandler(versions TemplateVersions, publisher TemplatePublisher) PublishTemplateCommandHandler {
	return PublishTemplateCommandHandler{versions: versions, publisher: publisher}
}

func (h *PublishTemplateCommandHandler) Handle(ctx context.Context, cmd PublishTemplateCommand) (workflow.Template, error) {
	if err := cmd.Validate(); err != nil {
		return workflow.Template{}, err
	}

	latest, err := h.versions.LatestVersion(ctx, cmd.TenantID(), cmd.Code())
	if err != nil {
		return workflow.Template{}, err
	}

	tpl, err := workflow.NewTemplate(
		kernel.NewUUID(),
		cmd.TenantID(),
		cmd.Code(),
		latest+1,
		cmd.Stages(),
		cmd.Transitions(),
		time.Now(),
	)
	if err != nil {
		return workflow.Template{}, err
	}

	if err = h.publisher.Publish(ctx, tpl); err != nil {
		return workflow.Template{}, err
	}

	return tpl, nil
}
