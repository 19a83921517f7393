package commands

import (
	"context"
	"fmt"
	"log/slog"

	"orderflow/internal/core/application/engine"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/metrics"
)

// AutoAdvanceCommandHandler drives auto-advancing edges as the system actor.
//
// Each candidate is previewed first and only submitted when the preview
// passes. The idempotency key embeds the order version, so a retry after a
// crash replays instead of applying twice, and no failure is stored for
// orders that are simply not ready yet.
type AutoAdvanceCommandHandler struct {
	templates  AutoTemplateSource
	uowFactory OrderUoWFactory
	engine     AutoAdvanceEngine
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewAutoAdvanceCommandHandler(
	templates AutoTemplateSource,
	uowFactory OrderUoWFactory,
	engine AutoAdvanceEngine,
	m *metrics.Metrics,
	logger *slog.Logger,
) AutoAdvanceCommandHandler {
	return AutoAdvanceCommandHandler{
		templates:  templates,
		uowFactory: uowFactory,
		engine:     engine,
		metrics:    m,
		logger:     logger.With("component", "auto-advance"),
	}
}

// Handle returns the number of orders moved. Failures on single orders are
// logged and do not stop the pass.
func (h *AutoAdvanceCommandHandler) Handle(ctx context.Context, cmd AutoAdvanceCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	templates, err := h.templates.ListAutoAdvancing(ctx)
	if err != nil {
		return 0, err
	}

	advanced := 0
	orderRepo := h.uowFactory.Create().OrderRepository()
	for _, tpl := range templates {
		for _, edge := range tpl.AutoTransitions() {
			q := ports.ActiveOrderQuery{
				TenantID: tpl.TenantID(),
				Status:   edge.From,
				Template: tpl.Ref(),
				Limit:    cmd.Limit(),
			}
			// Orders that are not ready keep their place; page past them.
			for {
				page, listErr := orderRepo.ListActiveInStatus(ctx, q)
				if listErr != nil {
					return advanced, listErr
				}
				for _, o := range page {
					if h.advance(ctx, o, edge) {
						advanced++
					}
				}
				if len(page) < q.Limit {
					break
				}
				if err = ctx.Err(); err != nil {
					return advanced, err
				}
				q = q.Next(page[len(page)-1])
			}
		}
	}

	return advanced, nil
}

func (h *AutoAdvanceCommandHandler) advance(ctx context.Context, o *order.Order, edge workflow.Transition) bool {
	version := o.Version()
	req := engine.TransitionRequest{
		TenantID:       o.TenantID(),
		OrderID:        o.ID(),
		Screen:         screen.Auto,
		FromStatus:     edge.From,
		ToStatus:       edge.To,
		Actor:          kernel.SystemActor(),
		IdempotencyKey: AutoAdvanceKey(o.ID(), version, edge.To),
	}

	if _, err := h.engine.Preview(ctx, req); err != nil {
		if !errs.IsCallerInputError(err) {
			h.logger.Warn("auto-advance preview failed", "order_id", o.ID().String(), "to", edge.To.String(), "error", err)
		}
		return false
	}

	res, err := h.engine.Transition(ctx, req)
	if err != nil {
		h.logger.Warn("auto-advance rejected",
			"order_id", o.ID().String(), "to", edge.To.String(), "code", string(errs.CodeOf(err)), "error", err)
		return false
	}
	if res.Replayed {
		return false
	}

	h.metrics.IncAutoAdvanced()
	h.logger.Info("order auto-advanced",
		"tenant_id", o.TenantID().String(), "order_id", o.ID().String(),
		"from", edge.From.String(), "to", edge.To.String(), "version", res.Version)
	return true
}

// AutoAdvanceKey is the idempotency key of a system transition.
func AutoAdvanceKey(orderID kernel.UUID, version int64, to workflow.StatusCode) string {
	return fmt.Sprintf("auto:%s:v%d:%s", orderID, version, to)
}
