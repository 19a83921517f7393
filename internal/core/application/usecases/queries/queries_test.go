package queries_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"orderflow/internal/adapters/out/memory"
	"orderflow/internal/core/application/engine"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type QueriesTestSuite struct {
	suite.Suite
	factory  *memory.UnitOfWorkFactory
	engine   *engine.Engine
	tpl      workflow.Template
	tenantID kernel.UUID
	operator kernel.Actor
}

func (s *QueriesTestSuite) SetupTest() {
	ctx := context.Background()
	s.tenantID = kernel.NewUUID()

	tpl, err := workflow.DefaultTemplate(kernel.NewUUID(), s.tenantID, time.Now())
	s.Require().NoError(err)
	s.tpl = tpl

	templates := memory.NewTemplateRepository()
	s.Require().NoError(templates.Publish(ctx, tpl))

	s.factory = memory.NewUnitOfWorkFactory(memory.NewStore())
	s.engine, err = engine.New(engine.Config{
		UnitOfWorkFactory: s.factory,
		Templates:         templates,
		Contracts:         memory.NewContractRepository(),
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	s.Require().NoError(err)

	s.operator, err = kernel.NewHumanActor("operator-3")
	s.Require().NoError(err)
}

func (s *QueriesTestSuite) newOrder(total, scanned int) *order.Order {
	o, err := order.NewOrder(kernel.NewUUID(), s.tenantID, s.tpl.Ref(), s.tpl.InitialStage(), total, nil, time.Now())
	s.Require().NoError(err)
	for range scanned {
		s.Require().NoError(o.RecordScan(time.Now()))
	}
	s.Require().NoError(s.factory.Create().OrderRepository().Add(context.Background(), o))
	return o
}

func (s *QueriesTestSuite) TestGetAllowedTransitions() {
	o := s.newOrder(2, 2)
	query, err := queries.NewGetAllowedTransitionsQuery(s.tenantID, o.ID(), screen.Processing, s.operator)
	s.Require().NoError(err)

	res, err := queries.NewGetAllowedTransitionsQueryHandler(s.engine).Handle(context.Background(), query)

	s.Require().NoError(err)
	s.Equal(workflow.StatusReceived, res.Status)
	s.Equal(int64(1), res.Version)
	s.Require().Len(res.Transitions, 3)
	for _, tr := range res.Transitions {
		s.True(tr.Allowed, tr.To)
		s.Empty(tr.Code)
	}
}

func (s *QueriesTestSuite) TestGetAllowedTransitions_UnknownOrder() {
	query, err := queries.NewGetAllowedTransitionsQuery(s.tenantID, kernel.NewUUID(), screen.Intake, s.operator)
	s.Require().NoError(err)

	_, err = queries.NewGetAllowedTransitionsQueryHandler(s.engine).Handle(context.Background(), query)

	s.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (s *QueriesTestSuite) TestPreview_RejectionIsAResponse() {
	o := s.newOrder(3, 1)
	query, err := queries.NewPreviewTransitionQuery(s.tenantID, o.ID(), screen.Processing,
		workflow.StatusReceived, workflow.StatusInProcess, s.operator, nil)
	s.Require().NoError(err)

	res, err := queries.NewPreviewTransitionQueryHandler(s.engine).Handle(context.Background(), query)

	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(errs.CodePreConditionNotMet, res.Code)
	s.Contains(res.Reason, "scanned_items != total_items")
}

func (s *QueriesTestSuite) TestPreview_StaleStateIsAResponse() {
	o := s.newOrder(1, 1)
	query, err := queries.NewPreviewTransitionQuery(s.tenantID, o.ID(), screen.Preparation,
		workflow.StatusPreparing, workflow.StatusInProcess, s.operator, nil)
	s.Require().NoError(err)

	res, err := queries.NewPreviewTransitionQueryHandler(s.engine).Handle(context.Background(), query)

	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(errs.CodeStaleState, res.Code)
}

func (s *QueriesTestSuite) TestPreview_Allowed() {
	o := s.newOrder(1, 1)
	query, err := queries.NewPreviewTransitionQuery(s.tenantID, o.ID(), screen.Intake,
		"", workflow.StatusPreparing, s.operator, nil)
	s.Require().NoError(err)

	res, err := queries.NewPreviewTransitionQueryHandler(s.engine).Handle(context.Background(), query)

	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Contains(res.PreConditions, screen.ItemsPresent)
	s.Contains(res.Effects, workflow.EffectDeductStock)
}

func (s *QueriesTestSuite) TestGetOrderHistory() {
	ctx := context.Background()
	o := s.newOrder(1, 1)
	_, err := s.engine.Transition(ctx, engine.TransitionRequest{
		TenantID:       s.tenantID,
		OrderID:        o.ID(),
		Screen:         screen.Intake,
		ToStatus:       workflow.StatusPreparing,
		Actor:          s.operator,
		Input:          screen.Input{"note": "rush"},
		IdempotencyKey: "h-1",
	})
	s.Require().NoError(err)

	uow := s.factory.Create()
	query, err := queries.NewGetOrderHistoryQuery(s.tenantID, o.ID())
	s.Require().NoError(err)

	entries, err := queries.NewGetOrderHistoryQueryHandler(uow.OrderRepository(), uow.HistoryRepository()).Handle(ctx, query)

	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(workflow.StatusReceived, entries[0].From)
	s.Equal(workflow.StatusPreparing, entries[0].To)
	s.Equal(int64(2), entries[0].Version)
	s.Equal("human:operator-3", entries[0].Actor)
	s.Equal("rush", entries[0].Input["note"])
}

func (s *QueriesTestSuite) TestGetOrderHistory_OtherTenant() {
	o := s.newOrder(1, 0)
	uow := s.factory.Create()
	query, err := queries.NewGetOrderHistoryQuery(kernel.NewUUID(), o.ID())
	s.Require().NoError(err)

	_, err = queries.NewGetOrderHistoryQueryHandler(uow.OrderRepository(), uow.HistoryRepository()).Handle(context.Background(), query)

	s.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (s *QueriesTestSuite) TestGetOrder() {
	o := s.newOrder(4, 2)
	query, err := queries.NewGetOrderQuery(s.tenantID, o.ID())
	s.Require().NoError(err)

	res, err := queries.NewGetOrderQueryHandler(s.factory.Create().OrderRepository()).Handle(context.Background(), query)

	s.Require().NoError(err)
	s.Equal(order.Counters{TotalItems: 4, ScannedItems: 2}, res.Counters)
	s.Equal(s.tpl.Ref(), res.Template)
	s.True(res.Active)
}

func TestQueriesTestSuite(t *testing.T) {
	suite.Run(t, new(QueriesTestSuite))
}

func TestQueries_NotConstructed(t *testing.T) {
	ctx := context.Background()

	_, err := queries.NewGetOrderQueryHandler(nil).Handle(ctx, queries.GetOrderQuery{})
	require.ErrorIs(t, err, queries.ErrGetOrderQueryIsNotConstructed)

	_, err = queries.NewGetOrderHistoryQueryHandler(nil, nil).Handle(ctx, queries.GetOrderHistoryQuery{})
	require.ErrorIs(t, err, queries.ErrGetOrderHistoryQueryIsNotConstructed)

	_, err = queries.NewPreviewTransitionQueryHandler(nil).Handle(ctx, queries.PreviewTransitionQuery{})
	require.ErrorIs(t, err, queries.ErrPreviewTransitionQueryIsNotConstructed)

	_, err = queries.NewGetAllowedTransitionsQueryHandler(nil).Handle(ctx, queries.GetAllowedTransitionsQuery{})
	assert.ErrorIs(t, err, queries.ErrGetAllowedTransitionsQueryIsNotConstructed)
}
