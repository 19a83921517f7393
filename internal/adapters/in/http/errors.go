package http

import (
	"errors"
	"fmt"
	"net/http"

	"orderflow/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// StatusOf maps an error code to the HTTP status returned to callers.
func StatusOf(code errs.Code) int {
	switch code {
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodePermissionDenied:
		return http.StatusForbidden
	case errs.CodeStaleState, errs.CodeConcurrentModification, errs.CodeIdempotencyKeyConflict:
		return http.StatusConflict
	case errs.CodeIllegalTransition, errs.CodePreConditionNotMet, errs.CodeMissingArtifact, errs.CodeInsufficientStock:
		return http.StatusUnprocessableEntity
	case errs.CodeTimeout:
		return http.StatusGatewayTimeout
	case errs.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an Error body. Server-side failures are logged; their
// message is not returned.
func (s *Server) fail(ctx echo.Context, err error) error {
	d := errs.Describe(err)
	status := StatusOf(d.Code)

	body := Error{Status: status, Code: string(d.Code), Message: d.Message}
	if len(d.Params) > 0 {
		body.Params = d.Params
	}
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(ctx.Request().Context(), "request failed",
			"method", ctx.Request().Method, "path", ctx.Path(), "code", d.Code, "error", err)
		body.Message = http.StatusText(status)
	}
	return ctx.JSON(status, body)
}

func (s *Server) badBody(ctx echo.Context, err error) error {
	return ctx.JSON(http.StatusBadRequest, Error{
		Status:  http.StatusBadRequest,
		Code:    string(errs.CodeInvalidInput),
		Message: "Invalid request body: " + err.Error(),
	})
}

func codeForStatus(status int) errs.Code {
	switch status {
	case http.StatusBadRequest:
		return errs.CodeInvalidInput
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return errs.CodeNotFound
	default:
		return errs.CodeInternal
	}
}

// errorHandler renders errors returned by middleware and parameter binding
// in the same shape as handler errors.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		he = echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}

	body := Error{Status: he.Code, Code: string(codeForStatus(he.Code)), Message: fmt.Sprint(he.Message)}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, body)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
