package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	orderhttp "orderflow/internal/adapters/in/http"
	"orderflow/internal/adapters/out/memory"
	"orderflow/internal/adapters/out/policy"
	"orderflow/internal/core/application/engine"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type orderUoWs struct{ f *memory.UnitOfWorkFactory }

func (u orderUoWs) Create() commands.OrderUoW { return u.f.Create() }

type evidenceUoWs struct{ f *memory.UnitOfWorkFactory }

func (u evidenceUoWs) Create() commands.EvidenceUoW { return u.f.Create() }

type ServerTestSuite struct {
	suite.Suite
	e        *echo.Echo
	tenantID kernel.UUID
}

func (s *ServerTestSuite) SetupTest() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.tenantID = kernel.NewUUID()

	tpl, err := workflow.DefaultTemplate(kernel.NewUUID(), s.tenantID, time.Now())
	s.Require().NoError(err)
	templates := memory.NewTemplateRepository()
	s.Require().NoError(templates.Publish(ctx, tpl))

	reg := prometheus.NewRegistry()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	eng, err := engine.New(engine.Config{
		UnitOfWorkFactory: factory,
		Templates:         templates,
		Contracts:         memory.NewContractRepository(),
		Metrics:           metrics.New(reg),
		Logger:            logger,
	})
	s.Require().NoError(err)

	spec := policy.DefaultSpec()
	spec.Roles["readonly"] = []string{"orders.view"}
	spec.Users = map[string][]string{"viewer": {"readonly"}}
	rolePolicy, err := policy.NewRolePolicy(spec)
	s.Require().NoError(err)

	orders := orderUoWs{f: factory}
	evidence := evidenceUoWs{f: factory}
	server := orderhttp.NewServer(orderhttp.Handlers{
		CreateOrder:           commands.NewCreateOrderCommandHandler(eng.Graph(), orders),
		ScreenTransition:      commands.NewScreenTransitionCommandHandler(eng, eng.Contracts(), rolePolicy, orders),
		ExecuteTransition:     commands.NewExecuteTransitionCommandHandler(eng, eng.Contracts(), rolePolicy),
		RecordItemScan:        commands.NewRecordItemScanCommandHandler(evidence),
		ResolveException:      commands.NewResolveExceptionCommandHandler(orders),
		RegisterArtifact:      commands.NewRegisterArtifactCommandHandler(evidence),
		GetOrder:              queries.NewGetOrderQueryHandler(factory.Create().OrderRepository()),
		GetOrderHistory:       queries.NewGetOrderHistoryQueryHandler(factory.Create().OrderRepository(), factory.Create().HistoryRepository()),
		GetAllowedTransitions: queries.NewGetAllowedTransitionsQueryHandler(eng),
		PreviewTransition:     queries.NewPreviewTransitionQueryHandler(eng),
	}, logger)

	s.e, err = orderhttp.NewRouter(ctx, server, reg, logger)
	s.Require().NoError(err)
}

func (s *ServerTestSuite) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) ordersPath() string {
	return "/api/v1/tenants/" + s.tenantID.String() + "/orders"
}

func (s *ServerTestSuite) createOrder(totalItems int) orderhttp.Order {
	rec := s.do(http.MethodPost, s.ordersPath(), `{"totalItems":`+jsonInt(totalItems)+`}`, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var o orderhttp.Order
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &o))
	return o
}

func (s *ServerTestSuite) orderPath(o orderhttp.Order) string {
	return s.ordersPath() + "/" + o.Id.String()
}

func jsonInt(n int) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}

func decode[T any](s *ServerTestSuite, rec *httptest.ResponseRecorder) T {
	var v T
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *ServerTestSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", "", nil)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("Healthy", rec.Body.String())
}

func (s *ServerTestSuite) TestCreateAndGetOrder() {
	o := s.createOrder(3)

	s.Equal(string(workflow.StatusReceived), o.Status)
	s.Equal(int64(1), o.Version)
	s.Equal(3, o.Counters.TotalItems)
	s.True(o.Active)

	rec := s.do(http.MethodGet, s.orderPath(o), "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(o.Id, decode[orderhttp.Order](s, rec).Id)
}

func (s *ServerTestSuite) TestCreateOrder_RejectedBySchema() {
	rec := s.do(http.MethodPost, s.ordersPath(), `{"totalItems":0}`, nil)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("INVALID_INPUT", decode[orderhttp.Error](s, rec).Code)
}

func (s *ServerTestSuite) TestGetOrder_NotFound() {
	rec := s.do(http.MethodGet, s.ordersPath()+"/"+kernel.NewUUID().String(), "", nil)

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("NOT_FOUND", decode[orderhttp.Error](s, rec).Code)
}

func (s *ServerTestSuite) TestScreenTransition_AppliesAndReplays() {
	o := s.createOrder(2)
	path := s.orderPath(o) + "/screens/intake/transitions"
	headers := map[string]string{"Idempotency-Key": "k-1", "X-User-ID": "operator-1"}

	first := s.do(http.MethodPost, path, `{"input":{"note":"bag 4"}}`, headers)
	s.Require().Equal(http.StatusOK, first.Code, first.Body.String())
	res := decode[orderhttp.TransitionResult](s, first)
	s.Equal(string(workflow.StatusReceived), res.From)
	s.Equal(string(workflow.StatusPreparing), res.To)
	s.Equal(int64(2), res.Version)
	s.False(res.Replayed)

	second := s.do(http.MethodPost, path, `{"input":{"note":"bag 4"}}`, headers)
	s.Require().Equal(http.StatusOK, second.Code, second.Body.String())
	replay := decode[orderhttp.TransitionResult](s, second)
	s.True(replay.Replayed)
	s.Equal(res.HistoryId, replay.HistoryId)
	s.Equal(int64(2), replay.Version)

	history := s.do(http.MethodGet, s.orderPath(o)+"/history", "", nil)
	s.Require().Equal(http.StatusOK, history.Code)
	entries := decode[[]orderhttp.HistoryEntry](s, history)
	s.Require().Len(entries, 1)
	s.Equal("human:operator-1", entries[0].Actor)
	s.Equal("k-1", entries[0].IdempotencyKey)
	s.Equal("bag 4", entries[0].Input["note"])
}

func (s *ServerTestSuite) TestScreenTransition_RequiresIdempotencyKey() {
	o := s.createOrder(2)

	rec := s.do(http.MethodPost, s.orderPath(o)+"/screens/intake/transitions", `{}`,
		map[string]string{"X-User-ID": "operator-1"})

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("INVALID_INPUT", decode[orderhttp.Error](s, rec).Code)
}

func (s *ServerTestSuite) TestScreenTransition_PreConditionNotMet() {
	o := s.createOrder(2)

	rec := s.do(http.MethodPost, s.orderPath(o)+"/screens/preparation/transitions", `{}`,
		map[string]string{"Idempotency-Key": "k-2", "X-User-ID": "operator-1"})

	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	body := decode[orderhttp.Error](s, rec)
	s.Equal("PRECONDITION_NOT_MET", body.Code)
	s.Contains(body.Message, "scanned_items != total_items")
}

func (s *ServerTestSuite) TestScreenTransition_PermissionDenied() {
	o := s.createOrder(2)

	rec := s.do(http.MethodPost, s.orderPath(o)+"/screens/intake/transitions", `{}`,
		map[string]string{"Idempotency-Key": "k-3", "X-User-ID": "viewer"})

	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("PERMISSION_DENIED", decode[orderhttp.Error](s, rec).Code)
}

func (s *ServerTestSuite) TestScreenTransition_StaleState() {
	o := s.createOrder(2)

	rec := s.do(http.MethodPost, s.orderPath(o)+"/screens/intake/transitions", `{"fromStatus":"PACKING"}`,
		map[string]string{"Idempotency-Key": "k-4", "X-User-ID": "operator-1"})

	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("STALE_STATE", decode[orderhttp.Error](s, rec).Code)
}

func (s *ServerTestSuite) TestExecuteTransition_Cancel() {
	o := s.createOrder(2)

	rec := s.do(http.MethodPost, s.orderPath(o)+"/transitions",
		`{"screen":"cancellation","fromStatus":"RECEIVED","toStatus":"CANCELLED"}`,
		map[string]string{"Idempotency-Key": "k-5", "X-User-ID": "operator-1"})

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(string(workflow.StatusCancelled), decode[orderhttp.TransitionResult](s, rec).To)
}

func (s *ServerTestSuite) TestPreviewTransition() {
	o := s.createOrder(2)
	path := s.orderPath(o) + "/transitions/preview"
	headers := map[string]string{"X-User-ID": "operator-1"}

	rejected := s.do(http.MethodPost, path, `{"screen":"preparation","toStatus":"IN_PROCESS"}`, headers)
	s.Require().Equal(http.StatusOK, rejected.Code, rejected.Body.String())
	verdict := decode[orderhttp.PreviewResult](s, rejected)
	s.False(verdict.Allowed)
	s.Equal("PRECONDITION_NOT_MET", verdict.Code)

	allowed := s.do(http.MethodPost, path, `{"screen":"intake","toStatus":"PREPARING"}`, headers)
	s.Require().Equal(http.StatusOK, allowed.Code, allowed.Body.String())
	verdict = decode[orderhttp.PreviewResult](s, allowed)
	s.True(verdict.Allowed)
	s.Contains(verdict.Effects, string(workflow.EffectDeductStock))

	missing := s.do(http.MethodPost, path, `{"screen":"intake"}`, headers)
	s.Equal(http.StatusBadRequest, missing.Code)
}

func (s *ServerTestSuite) TestGetAllowedTransitions() {
	o := s.createOrder(2)

	rec := s.do(http.MethodGet, s.orderPath(o)+"/allowed-transitions?screen=intake", "",
		map[string]string{"X-User-ID": "operator-1"})

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	res := decode[orderhttp.AllowedTransitions](s, rec)
	s.Equal(string(workflow.StatusReceived), res.Status)
	s.Equal(int64(1), res.Version)
	s.NotEmpty(res.Transitions)
}

func (s *ServerTestSuite) TestScansExceptionsAndArtifacts() {
	o := s.createOrder(2)

	rec := s.do(http.MethodPost, s.orderPath(o)+"/scans", `{"tag":"T-1","exception":true}`, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	counters := decode[orderhttp.Counters](s, rec)
	s.Equal(1, counters.ScannedItems)
	s.Equal(1, counters.ExceptionItems)

	rec = s.do(http.MethodPost, s.orderPath(o)+"/exceptions/resolve", `{"count":1}`, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(0, decode[orderhttp.Counters](s, rec).ExceptionItems)

	rec = s.do(http.MethodPost, s.orderPath(o)+"/artifacts", `{"kind":"pod","reference":"s3://pod/1.png"}`, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	a := decode[orderhttp.Artifact](s, rec)
	s.Equal("pod", a.Kind)
	s.Equal(o.Id, a.OrderId)

	rec = s.do(http.MethodPost, s.orderPath(o)+"/artifacts", `{"kind":"receipt","reference":"x"}`, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerTestSuite) TestMetricsAreExposed() {
	o := s.createOrder(1)
	s.do(http.MethodPost, s.orderPath(o)+"/screens/intake/transitions", `{}`,
		map[string]string{"Idempotency-Key": "k-6", "X-User-ID": "operator-1"})

	rec := s.do(http.MethodGet, "/metrics", "", nil)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "orderflow_transitions_total")
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func TestStatusOf(t *testing.T) {
	cases := map[string]int{
		"NOT_FOUND":                http.StatusNotFound,
		"PERMISSION_DENIED":        http.StatusForbidden,
		"STALE_STATE":              http.StatusConflict,
		"CONCURRENT_MODIFICATION":  http.StatusConflict,
		"IDEMPOTENCY_KEY_CONFLICT": http.StatusConflict,
		"ILLEGAL_TRANSITION":       http.StatusUnprocessableEntity,
		"PRECONDITION_NOT_MET":     http.StatusUnprocessableEntity,
		"MISSING_ARTIFACT":         http.StatusUnprocessableEntity,
		"INSUFFICIENT_STOCK":       http.StatusUnprocessableEntity,
		"TIMEOUT":                  http.StatusGatewayTimeout,
		"INVALID_INPUT":            http.StatusBadRequest,
		"UNKNOWN_TEMPLATE":         http.StatusInternalServerError,
		"INTERNAL":                 http.StatusInternalServerError,
	}
	for code, want := range cases {
		t.Run(code, func(t *testing.T) {
			assert.Equal(t, want, orderhttp.StatusOf(errs.Code(code)))
		})
	}
}
