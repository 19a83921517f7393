package http

import (
	"errors"
	"log/slog"
	"net/http"

	"orderflow/internal/core/application/engine"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Handlers groups the use cases the HTTP API exposes.
type Handlers struct {
	// Command handlers
	CreateOrder       commands.CreateOrderCommandHandler
	ScreenTransition  commands.ScreenTransitionCommandHandler
	ExecuteTransition commands.ExecuteTransitionCommandHandler
	RecordItemScan    commands.RecordItemScanCommandHandler
	ResolveException  commands.ResolveExceptionCommandHandler
	RegisterArtifact  commands.RegisterArtifactCommandHandler

	// Query handlers
	GetOrder              queries.GetOrderQueryHandler
	GetOrderHistory       queries.GetOrderHistoryQueryHandler
	GetAllowedTransitions queries.GetAllowedTransitionsQueryHandler
	PreviewTransition     queries.PreviewTransitionQueryHandler
}

// Server implements the ServerInterface for handling HTTP requests.
// It coordinates between HTTP handlers and application use cases.
type Server struct {
	h      Handlers
	logger *slog.Logger
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(h Handlers, logger *slog.Logger) *Server {
	return &Server{h: h, logger: logger.With("component", "http")}
}

// CreateOrder handles POST /api/v1/tenants/{tenantId}/orders.
func (s *Server) CreateOrder(ctx echo.Context, tenantId TenantId) error {
	var body NewOrder
	if err := ctx.Bind(&body); err != nil {
		return s.badBody(ctx, err)
	}

	tenantID, err := toKernelID(tenantId)
	if err != nil {
		return s.fail(ctx, err)
	}
	orderID := kernel.NewUUID()
	if body.OrderId != nil {
		if orderID, err = toKernelID(*body.OrderId); err != nil {
			return s.fail(ctx, err)
		}
	}
	lines := make([]order.RetailLine, 0, len(body.RetailLines))
	for _, l := range body.RetailLines {
		lines = append(lines, order.RetailLine{SKU: l.Sku, Quantity: l.Quantity})
	}

	cmd, err := commands.NewCreateOrderCommand(tenantID, orderID, body.TotalItems, lines)
	if err != nil {
		return s.fail(ctx, err)
	}

	o, err := s.h.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, toOrder(queries.OrderResponse(o)))
}

// GetOrder handles GET /api/v1/tenants/{tenantId}/orders/{orderId}.
func (s *Server) GetOrder(ctx echo.Context, tenantId TenantId, orderId OrderId) error {
	tenantID, orderID, err := toKernelIDs(tenantId, orderId)
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewGetOrderQuery(tenantID, orderID)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.h.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toOrder(res))
}

// ScreenTransition handles POST .../orders/{orderId}/screens/{screen}/transitions.
func (s *Server) ScreenTransition(
	ctx echo.Context,
	tenantId TenantId,
	orderId OrderId,
	key string,
	params ScreenTransitionParams,
) error {
	tenantID, orderID, err := toKernelIDs(tenantId, orderId)
	if err != nil {
		return s.fail(ctx, err)
	}

	var body ScreenTransitionRequest
	if err = ctx.Bind(&body); err != nil {
		return s.badBody(ctx, err)
	}

	actor, err := kernel.NewHumanActor(params.XUserID)
	if err != nil {
		return s.fail(ctx, err)
	}
	target := commands.TransitionTarget{ExpectedVersion: body.ExpectedVersion}
	if body.FromStatus != nil {
		target.From = workflow.StatusCode(*body.FromStatus)
	}
	if body.ToStatus != nil {
		target.To = workflow.StatusCode(*body.ToStatus)
	}

	cmd, err := commands.NewScreenTransitionCommand(
		tenantID, orderID, screen.Key(key), actor,
		params.IdempotencyKey, target, screen.Input(body.Input),
	)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.h.ScreenTransition.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toTransitionResult(res))
}

// ExecuteTransition handles POST .../orders/{orderId}/transitions.
func (s *Server) ExecuteTransition(
	ctx echo.Context,
	tenantId TenantId,
	orderId OrderId,
	params ExecuteTransitionParams,
) error {
	tenantID, orderID, err := toKernelIDs(tenantId, orderId)
	if err != nil {
		return s.fail(ctx, err)
	}

	var body TransitionRequest
	if err = ctx.Bind(&body); err != nil {
		return s.badBody(ctx, err)
	}

	actor, err := kernel.NewHumanActor(params.XUserID)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewExecuteTransitionCommand(
		tenantID, orderID, screen.Key(body.Screen), actor,
		params.IdempotencyKey,
		commands.TransitionTarget{
			From:            workflow.StatusCode(body.FromStatus),
			To:              workflow.StatusCode(body.ToStatus),
			ExpectedVersion: body.ExpectedVersion,
		},
		screen.Input(body.Input),
	)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.h.ExecuteTransition.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toTransitionResult(res))
}

// PreviewTransition handles POST .../orders/{orderId}/transitions/preview.
// A rejected transition is a 200 response with allowed=false.
func (s *Server) PreviewTransition(
	ctx echo.Context,
	tenantId TenantId,
	orderId OrderId,
	params PreviewTransitionParams,
) error {
	tenantID, orderID, err := toKernelIDs(tenantId, orderId)
	if err != nil {
		return s.fail(ctx, err)
	}

	var body PreviewRequest
	if err = ctx.Bind(&body); err != nil {
		return s.badBody(ctx, err)
	}

	actor, err := kernel.NewHumanActor(params.XUserID)
	if err != nil {
		return s.fail(ctx, err)
	}
	var from workflow.StatusCode
	if body.FromStatus != nil {
		from = workflow.StatusCode(*body.FromStatus)
	}

	query, err := queries.NewPreviewTransitionQuery(
		tenantID, orderID, screen.Key(body.Screen),
		from, workflow.StatusCode(body.ToStatus), actor, screen.Input(body.Input),
	)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.h.PreviewTransition.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	effects := make([]string, 0, len(res.Effects))
	for _, e := range res.Effects {
		effects = append(effects, string(e))
	}
	return ctx.JSON(http.StatusOK, PreviewResult{
		Allowed:       res.Allowed,
		Code:          string(res.Code),
		Reason:        res.Reason,
		PreConditions: res.PreConditions,
		Effects:       effects,
	})
}

// GetAllowedTransitions handles GET .../orders/{orderId}/allowed-transitions.
func (s *Server) GetAllowedTransitions(
	ctx echo.Context,
	tenantId TenantId,
	orderId OrderId,
	params GetAllowedTransitionsParams,
) error {
	tenantID, orderID, err := toKernelIDs(tenantId, orderId)
	if err != nil {
		return s.fail(ctx, err)
	}

	actor, err := kernel.NewHumanActor(params.XUserID)
	if err != nil {
		return s.fail(ctx, err)
	}
	query, err := queries.NewGetAllowedTransitionsQuery(tenantID, orderID, screen.Key(params.Screen), actor)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.h.GetAllowedTransitions.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := AllowedTransitions{
		OrderId:     res.OrderID.Bytes(),
		Status:      string(res.Status),
		Phase:       string(res.Phase),
		Version:     res.Version,
		Transitions: make([]AllowedTransition, len(res.Transitions)),
	}
	for i, tr := range res.Transitions {
		response.Transitions[i] = AllowedTransition{
			To:      string(tr.To),
			Allowed: tr.Allowed,
			Code:    string(tr.Code),
			Reason:  tr.Reason,
		}
	}
	return ctx.JSON(http.StatusOK, response)
}

// GetOrderHistory handles GET .../orders/{orderId}/history.
func (s *Server) GetOrderHistory(ctx echo.Context, tenantId TenantId, orderId OrderId) error {
	tenantID, orderID, err := toKernelIDs(tenantId, orderId)
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewGetOrderHistoryQuery(tenantID, orderID)
	if err != nil {
		return s.fail(ctx, err)
	}

	entries, err := s.h.GetOrderHistory.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		response[i] = HistoryEntry{
			Id:             e.ID.Bytes(),
			Screen:         e.Screen,
			From:           string(e.From),
			To:             string(e.To),
			Actor:          e.Actor,
			OccurredAt:     e.OccurredAt,
			Input:          e.Input,
			IdempotencyKey: e.IdempotencyKey,
			Version:        e.Version,
		}
	}
	return ctx.JSON(http.StatusOK, response)
}

// RecordItemScan handles POST .../orders/{orderId}/scans.
func (s *Server) RecordItemScan(ctx echo.Context, tenantId TenantId, orderId OrderId) error {
	tenantID, orderID, err := toKernelIDs(tenantId, orderId)
	if err != nil {
		return s.fail(ctx, err)
	}

	var body ItemScan
	if err = ctx.Bind(&body); err != nil {
		return s.badBody(ctx, err)
	}

	var tag string
	if body.Tag != nil {
		tag = *body.Tag
	}
	cmd, err := commands.NewRecordItemScanCommand(tenantID, orderID, tag,
		body.Exception != nil && *body.Exception)
	if err != nil {
		return s.fail(ctx, err)
	}

	counters, err := s.h.RecordItemScan.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toCounters(counters))
}

// ResolveExceptions handles POST .../orders/{orderId}/exceptions/resolve.
func (s *Server) ResolveExceptions(ctx echo.Context, tenantId TenantId, orderId OrderId) error {
	tenantID, orderID, err := toKernelIDs(tenantId, orderId)
	if err != nil {
		return s.fail(ctx, err)
	}

	var body ExceptionResolution
	if err = ctx.Bind(&body); err != nil {
		return s.badBody(ctx, err)
	}

	cmd, err := commands.NewResolveExceptionCommand(tenantID, orderID, body.Count)
	if err != nil {
		return s.fail(ctx, err)
	}

	counters, err := s.h.ResolveException.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toCounters(counters))
}

// RegisterArtifact handles POST .../orders/{orderId}/artifacts.
func (s *Server) RegisterArtifact(ctx echo.Context, tenantId TenantId, orderId OrderId) error {
	tenantID, orderID, err := toKernelIDs(tenantId, orderId)
	if err != nil {
		return s.fail(ctx, err)
	}

	var body NewArtifact
	if err = ctx.Bind(&body); err != nil {
		return s.badBody(ctx, err)
	}

	cmd, err := commands.NewRegisterArtifactCommand(tenantID, orderID, body.Kind, body.Reference)
	if err != nil {
		return s.fail(ctx, err)
	}

	a, err := s.h.RegisterArtifact.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, Artifact{
		Id:        a.ID.Bytes(),
		OrderId:   a.OrderID.Bytes(),
		Kind:      a.Kind.String(),
		Reference: a.Reference,
		CreatedAt: a.CreatedAt,
	})
}

func toOrder(o queries.GetOrderQueryResponse) Order {
	lines := make([]RetailLine, 0, len(o.RetailLines))
	for _, l := range o.RetailLines {
		lines = append(lines, RetailLine{Sku: l.SKU, Quantity: l.Quantity})
	}
	return Order{
		Id:              o.ID.Bytes(),
		TenantId:        o.TenantID.Bytes(),
		TemplateId:      o.Template.TemplateID.Bytes(),
		TemplateVersion: o.Template.Version,
		Status:          string(o.Status),
		Phase:           string(o.Phase),
		Version:         o.Version,
		Counters:        toCounters(o.Counters),
		QaDecision:      string(o.QADecision),
		RetailLines:     lines,
		Active:          o.Active,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toCounters(c order.Counters) Counters {
	return Counters{TotalItems: c.TotalItems, ScannedItems: c.ScannedItems, ExceptionItems: c.ExceptionItems}
}

func toTransitionResult(res engine.TransitionResult) TransitionResult {
	return TransitionResult{
		OrderId:    res.OrderID.Bytes(),
		From:       string(res.From),
		To:         string(res.To),
		Phase:      string(res.Phase),
		Version:    res.Version,
		HistoryId:  res.HistoryID.Bytes(),
		OccurredAt: res.OccurredAt,
		Replayed:   res.Replayed,
	}
}

func toKernelID(id openapi_types.UUID) (kernel.UUID, error) {
	return kernel.UUIDFromBytes(id[:])
}

func toKernelIDs(tenantId TenantId, orderId OrderId) (kernel.UUID, kernel.UUID, error) {
	tenantID, tenantErr := toKernelID(tenantId)
	orderID, orderErr := toKernelID(orderId)
	return tenantID, orderID, errors.Join(tenantErr, orderErr)
}
