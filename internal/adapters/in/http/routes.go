package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (POST /tenants/{tenantId}/orders)
	CreateOrder(ctx echo.Context, tenantId TenantId) error
	// (GET /tenants/{tenantId}/orders/{orderId})
	GetOrder(ctx echo.Context, tenantId TenantId, orderId OrderId) error
	// (POST /tenants/{tenantId}/orders/{orderId}/screens/{screen}/transitions)
	ScreenTransition(ctx echo.Context, tenantId TenantId, orderId OrderId, screen string, params ScreenTransitionParams) error
	// (POST /tenants/{tenantId}/orders/{orderId}/transitions)
	ExecuteTransition(ctx echo.Context, tenantId TenantId, orderId OrderId, params ExecuteTransitionParams) error
	// (POST /tenants/{tenantId}/orders/{orderId}/transitions/preview)
	PreviewTransition(ctx echo.Context, tenantId TenantId, orderId OrderId, params PreviewTransitionParams) error
	// (GET /tenants/{tenantId}/orders/{orderId}/allowed-transitions)
	GetAllowedTransitions(ctx echo.Context, tenantId TenantId, orderId OrderId, params GetAllowedTransitionsParams) error
	// (GET /tenants/{tenantId}/orders/{orderId}/history)
	GetOrderHistory(ctx echo.Context, tenantId TenantId, orderId OrderId) error
	// (POST /tenants/{tenantId}/orders/{orderId}/scans)
	RecordItemScan(ctx echo.Context, tenantId TenantId, orderId OrderId) error
	// (POST /tenants/{tenantId}/orders/{orderId}/exceptions/resolve)
	ResolveExceptions(ctx echo.Context, tenantId TenantId, orderId OrderId) error
	// (POST /tenants/{tenantId}/orders/{orderId}/artifacts)
	RegisterArtifact(ctx echo.Context, tenantId TenantId, orderId OrderId) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func bindPath(ctx echo.Context, name string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return nil
}

func bindHeader(ctx echo.Context, name string, dest any) error {
	values, found := ctx.Request().Header[http.CanonicalHeaderKey(name)]
	if !found {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Header parameter %s is required, but not found", name))
	}
	if n := len(values); n != 1 {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Expected one value for %s, got %d", name, n))
	}
	err := runtime.BindStyledParameterWithOptions("simple", name, values[0], dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationHeader, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return nil
}

func bindOrderPath(ctx echo.Context) (TenantId, OrderId, error) {
	var tenantId TenantId
	var orderId OrderId
	if err := bindPath(ctx, "tenantId", &tenantId); err != nil {
		return tenantId, orderId, err
	}
	if err := bindPath(ctx, "orderId", &orderId); err != nil {
		return tenantId, orderId, err
	}
	return tenantId, orderId, nil
}

// CreateOrder converts echo context to params.
func (w *ServerInterfaceWrapper) CreateOrder(ctx echo.Context) error {
	var tenantId TenantId
	if err := bindPath(ctx, "tenantId", &tenantId); err != nil {
		return err
	}
	return w.Handler.CreateOrder(ctx, tenantId)
}

// GetOrder converts echo context to params.
func (w *ServerInterfaceWrapper) GetOrder(ctx echo.Context) error {
	tenantId, orderId, err := bindOrderPath(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetOrder(ctx, tenantId, orderId)
}

// ScreenTransition converts echo context to params.
func (w *ServerInterfaceWrapper) ScreenTransition(ctx echo.Context) error {
	tenantId, orderId, err := bindOrderPath(ctx)
	if err != nil {
		return err
	}
	var screen string
	if err = bindPath(ctx, "screen", &screen); err != nil {
		return err
	}

	var params ScreenTransitionParams
	if err = bindHeader(ctx, "Idempotency-Key", &params.IdempotencyKey); err != nil {
		return err
	}
	if err = bindHeader(ctx, "X-User-ID", &params.XUserID); err != nil {
		return err
	}
	return w.Handler.ScreenTransition(ctx, tenantId, orderId, screen, params)
}

// ExecuteTransition converts echo context to params.
func (w *ServerInterfaceWrapper) ExecuteTransition(ctx echo.Context) error {
	tenantId, orderId, err := bindOrderPath(ctx)
	if err != nil {
		return err
	}

	var params ExecuteTransitionParams
	if err = bindHeader(ctx, "Idempotency-Key", &params.IdempotencyKey); err != nil {
		return err
	}
	if err = bindHeader(ctx, "X-User-ID", &params.XUserID); err != nil {
		return err
	}
	return w.Handler.ExecuteTransition(ctx, tenantId, orderId, params)
}

// PreviewTransition converts echo context to params.
func (w *ServerInterfaceWrapper) PreviewTransition(ctx echo.Context) error {
	tenantId, orderId, err := bindOrderPath(ctx)
	if err != nil {
		return err
	}

	var params PreviewTransitionParams
	if err = bindHeader(ctx, "X-User-ID", &params.XUserID); err != nil {
		return err
	}
	return w.Handler.PreviewTransition(ctx, tenantId, orderId, params)
}

// GetAllowedTransitions converts echo context to params.
func (w *ServerInterfaceWrapper) GetAllowedTransitions(ctx echo.Context) error {
	tenantId, orderId, err := bindOrderPath(ctx)
	if err != nil {
		return err
	}

	var params GetAllowedTransitionsParams
	if err = runtime.BindQueryParameter("form", true, true, "screen", ctx.QueryParams(), &params.Screen); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter screen: %s", err))
	}
	if err = bindHeader(ctx, "X-User-ID", &params.XUserID); err != nil {
		return err
	}
	return w.Handler.GetAllowedTransitions(ctx, tenantId, orderId, params)
}

// GetOrderHistory converts echo context to params.
func (w *ServerInterfaceWrapper) GetOrderHistory(ctx echo.Context) error {
	tenantId, orderId, err := bindOrderPath(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetOrderHistory(ctx, tenantId, orderId)
}

// RecordItemScan converts echo context to params.
func (w *ServerInterfaceWrapper) RecordItemScan(ctx echo.Context) error {
	tenantId, orderId, err := bindOrderPath(ctx)
	if err != nil {
		return err
	}
	return w.Handler.RecordItemScan(ctx, tenantId, orderId)
}

// ResolveExceptions converts echo context to params.
func (w *ServerInterfaceWrapper) ResolveExceptions(ctx echo.Context) error {
	tenantId, orderId, err := bindOrderPath(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ResolveExceptions(ctx, tenantId, orderId)
}

// RegisterArtifact converts echo context to params.
func (w *ServerInterfaceWrapper) RegisterArtifact(ctx echo.Context) error {
	tenantId, orderId, err := bindOrderPath(ctx)
	if err != nil {
		return err
	}
	return w.Handler.RegisterArtifact(ctx, tenantId, orderId)
}

// EchoRouter is the subset of *echo.Echo and *echo.Group the routes are added to.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the router under baseURL.
func RegisterHandlers(router EchoRouter, si ServerInterface, baseURL string) {
	w := ServerInterfaceWrapper{Handler: si}

	order := baseURL + "/tenants/:tenantId/orders/:orderId"
	router.POST(baseURL+"/tenants/:tenantId/orders", w.CreateOrder)
	router.GET(order, w.GetOrder)
	router.POST(order+"/screens/:screen/transitions", w.ScreenTransition)
	router.POST(order+"/transitions", w.ExecuteTransition)
	router.POST(order+"/transitions/preview", w.PreviewTransition)
	router.GET(order+"/allowed-transitions", w.GetAllowedTransitions)
	router.GET(order+"/history", w.GetOrderHistory)
	router.POST(order+"/scans", w.RecordItemScan)
	router.POST(order+"/exceptions/resolve", w.ResolveExceptions)
	router.POST(order+"/artifacts", w.RegisterArtifact)
}
