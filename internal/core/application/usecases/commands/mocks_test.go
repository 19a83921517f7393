package commands_test

import (
	"context"
	"testing"
	"time"

	"orderflow/internal/core/application/engine"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/artifact"
	"orderflow/internal/core/domain/model/idempotency"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/outbox"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}
func (m *MockOrderRepository) Get(ctx context.Context, tenantID, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, tenantID, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}
func (m *MockOrderRepository) GetForUpdate(ctx context.Context, tenantID, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, tenantID, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}
func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order, expectedVersion int64) error {
	args := m.Called(ctx, o, expectedVersion)
	return args.Error(0)
}
func (m *MockOrderRepository) ListActiveInStatus(ctx context.Context, q ports.ActiveOrderQuery) ([]*order.Order, error) {
	args := m.Called(ctx, q)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

type MockArtifactRepository struct{ mock.Mock }

func (m *MockArtifactRepository) Add(ctx context.Context, a artifact.Artifact) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockArtifactRepository) ListByOrder(ctx context.Context, tenantID, orderID kernel.UUID) ([]artifact.Artifact, error) {
	args := m.Called(ctx, tenantID, orderID)
	out, _ := args.Get(0).([]artifact.Artifact)
	return out, args.Error(1)
}

type MockOutboxRepository struct{ mock.Mock }

func (m *MockOutboxRepository) Add(ctx context.Context, e outbox.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
func (m *MockOutboxRepository) ListPending(ctx context.Context, limit int) ([]outbox.Entry, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]outbox.Entry)
	return out, args.Error(1)
}
func (m *MockOutboxRepository) Update(ctx context.Context, e outbox.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type MockIdempotencyRepository struct{ mock.Mock }

func (m *MockIdempotencyRepository) Get(ctx context.Context, tenantID kernel.UUID, key string) (idempotency.Record, error) {
	args := m.Called(ctx, tenantID, key)
	rec, _ := args.Get(0).(idempotency.Record)
	return rec, args.Error(1)
}
func (m *MockIdempotencyRepository) Add(ctx context.Context, rec idempotency.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
func (m *MockIdempotencyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockUoW satisfies every narrow unit of work interface of the package.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}
func (m *MockUoW) ArtifactRepository() ports.ArtifactRepository {
	args := m.Called()
	return args.Get(0).(ports.ArtifactRepository)
}
func (m *MockUoW) OutboxRepository() ports.OutboxRepository {
	args := m.Called()
	return args.Get(0).(ports.OutboxRepository)
}
func (m *MockUoW) IdempotencyRepository() ports.IdempotencyRepository {
	args := m.Called()
	return args.Get(0).(ports.IdempotencyRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockEvidenceUoWFactory struct{ mock.Mock }

func (m *MockEvidenceUoWFactory) Create() commands.EvidenceUoW {
	args := m.Called()
	return args.Get(0).(commands.EvidenceUoW)
}

type MockOutboxUoWFactory struct{ mock.Mock }

func (m *MockOutboxUoWFactory) Create() commands.OutboxUoW {
	args := m.Called()
	return args.Get(0).(commands.OutboxUoW)
}

type MockIdempotencyUoWFactory struct{ mock.Mock }

func (m *MockIdempotencyUoWFactory) Create() commands.IdempotencyUoW {
	args := m.Called()
	return args.Get(0).(commands.IdempotencyUoW)
}

type MockEngine struct{ mock.Mock }

func (m *MockEngine) Transition(ctx context.Context, req engine.TransitionRequest) (engine.TransitionResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(engine.TransitionResult)
	return res, args.Error(1)
}
func (m *MockEngine) Preview(ctx context.Context, req engine.TransitionRequest) (services.ValidationResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(services.ValidationResult)
	return res, args.Error(1)
}

type MockContracts struct{ mock.Mock }

func (m *MockContracts) ResolveContract(ctx context.Context, tenantID kernel.UUID, key screen.Key) (screen.Contract, error) {
	args := m.Called(ctx, tenantID, key)
	c, _ := args.Get(0).(screen.Contract)
	return c, args.Error(1)
}

type MockPolicy struct{ mock.Mock }

func (m *MockPolicy) Allowed(ctx context.Context, req ports.PolicyRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

type MockTemplates struct{ mock.Mock }

func (m *MockTemplates) ActiveTemplate(ctx context.Context, tenantID kernel.UUID) (workflow.Template, error) {
	args := m.Called(ctx, tenantID)
	tpl, _ := args.Get(0).(workflow.Template)
	return tpl, args.Error(1)
}
func (m *MockTemplates) LatestVersion(ctx context.Context, tenantID kernel.UUID, code string) (int, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Int(0), args.Error(1)
}
func (m *MockTemplates) Publish(ctx context.Context, tpl workflow.Template) error {
	args := m.Called(ctx, tpl)
	return args.Error(0)
}
func (m *MockTemplates) ListAutoAdvancing(ctx context.Context) ([]workflow.Template, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]workflow.Template)
	return out, args.Error(1)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, e outbox.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func newTemplate(t *testing.T, tenantID kernel.UUID) workflow.Template {
	t.Helper()
	tpl, err := workflow.DefaultTemplate(kernel.NewUUID(), tenantID, time.Now())
	require.NoError(t, err)
	return tpl
}

func newOrderAt(t *testing.T, tpl workflow.Template, status workflow.StatusCode, total int) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), tpl.TenantID(), tpl.Ref(), tpl.InitialStage(), total, nil, time.Now())
	require.NoError(t, err)
	if status != o.Status() {
		stage, ok := tpl.Stage(status)
		require.True(t, ok)
		require.NoError(t, o.ApplyTransition(stage, time.Now()))
	}
	return o
}

func operator(t *testing.T) kernel.Actor {
	t.Helper()
	a, err := kernel.NewHumanActor("operator-1")
	require.NoError(t, err)
	return a
}
