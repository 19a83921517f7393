package engine_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"orderflow/internal/adapters/out/memory"
	"orderflow/internal/core/application/engine"
	"orderflow/internal/core/domain/model/artifact"
	"orderflow/internal/core/domain/model/inventory"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"

	"github.com/stretchr/testify/require"
)

type harness struct {
	factory   *memory.UnitOfWorkFactory
	templates *memory.TemplateRepository
	engine    *engine.Engine
	tpl       workflow.Template
	tenantID  kernel.UUID
	operator  kernel.Actor
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T, timeout time.Duration) *harness {
	t.Helper()
	ctx := context.Background()

	tenantID := kernel.NewUUID()
	tpl, err := workflow.DefaultTemplate(kernel.NewUUID(), tenantID, time.Now())
	require.NoError(t, err)

	templates := memory.NewTemplateRepository()
	require.NoError(t, templates.Publish(ctx, tpl))

	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	e, err := engine.New(engine.Config{
		UnitOfWorkFactory: factory,
		Templates:         templates,
		Contracts:         memory.NewContractRepository(),
		Logger:            discardLogger(),
		Timeout:           timeout,
	})
	require.NoError(t, err)

	operator, err := kernel.NewHumanActor("operator-7")
	require.NoError(t, err)

	return &harness{
		factory:   factory,
		templates: templates,
		engine:    e,
		tpl:       tpl,
		tenantID:  tenantID,
		operator:  operator,
	}
}

func (h *harness) orderAt(t *testing.T, status workflow.StatusCode, total, scanned int, lines ...order.RetailLine) *order.Order {
	t.Helper()
	stage, ok := h.tpl.Stage(status)
	require.True(t, ok)

	o, err := order.NewOrder(kernel.NewUUID(), h.tenantID, h.tpl.Ref(), stage, total, lines, time.Now())
	require.NoError(t, err)
	for i := 0; i < scanned; i++ {
		require.NoError(t, o.RecordScan(time.Now()))
	}
	require.NoError(t, h.factory.Create().OrderRepository().Add(context.Background(), o))
	return o
}

func (h *harness) stock(t *testing.T, sku string, onHand int) {
	t.Helper()
	item, err := inventory.NewStockItem(h.tenantID, sku, onHand)
	require.NoError(t, err)
	require.NoError(t, h.factory.Create().InventoryRepository().Save(context.Background(), item))
}

func (h *harness) onHand(t *testing.T, sku string) int {
	t.Helper()
	uow := h.factory.Create()
	require.NoError(t, uow.Begin(context.Background()))
	defer func() { _ = uow.Rollback(context.Background()) }()
	item, err := uow.InventoryRepository().GetForUpdate(context.Background(), h.tenantID, sku)
	require.NoError(t, err)
	return item.OnHand
}

func (h *harness) attach(t *testing.T, o *order.Order, kind artifact.Kind) {
	t.Helper()
	a, err := artifact.NewArtifact(h.tenantID, o.ID(), kind, "ref", time.Now())
	require.NoError(t, err)
	require.NoError(t, h.factory.Create().ArtifactRepository().Add(context.Background(), a))
}

func (h *harness) raiseExceptions(t *testing.T, o *order.Order, n int) {
	t.Helper()
	ctx := context.Background()
	uow := h.factory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer func() { _ = uow.Rollback(ctx) }()

	locked, err := uow.OrderRepository().GetForUpdate(ctx, h.tenantID, o.ID())
	require.NoError(t, err)
	require.NoError(t, locked.RaiseExceptions(n, time.Now()))
	require.NoError(t, uow.OrderRepository().Update(ctx, locked, locked.Version()))
	require.NoError(t, uow.Commit(ctx))
}

func (h *harness) reload(t *testing.T, o *order.Order) *order.Order {
	t.Helper()
	got, err := h.factory.Create().OrderRepository().Get(context.Background(), h.tenantID, o.ID())
	require.NoError(t, err)
	return got
}

func (h *harness) historyLen(t *testing.T, o *order.Order) int {
	t.Helper()
	records, err := h.factory.Create().HistoryRepository().ListByOrder(context.Background(), h.tenantID, o.ID())
	require.NoError(t, err)
	return len(records)
}

func (h *harness) request(o *order.Order, key screen.Key, to workflow.StatusCode, idempotencyKey string) engine.TransitionRequest {
	return engine.TransitionRequest{
		TenantID:       h.tenantID,
		OrderID:        o.ID(),
		Screen:         key,
		ToStatus:       to,
		Actor:          h.operator,
		IdempotencyKey: idempotencyKey,
	}
}

func version(v int64) *int64 {
	return &v
}
