package errs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// Code is the stable, caller-facing identifier of an error class. Codes are
// persisted with failed idempotency records, so existing values must not change.
type Code string

const (
	CodeUnknownTemplate        Code = "UNKNOWN_TEMPLATE"
	CodeUnknownStage           Code = "UNKNOWN_STAGE"
	CodeStaleState             Code = "STALE_STATE"
	CodeIllegalTransition      Code = "ILLEGAL_TRANSITION"
	CodePreConditionNotMet     Code = "PRECONDITION_NOT_MET"
	CodeMissingArtifact        Code = "MISSING_ARTIFACT"
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"
	CodeTimeout                Code = "TIMEOUT"
	CodePermissionDenied       Code = "PERMISSION_DENIED"
	CodeIdempotencyKeyConflict Code = "IDEMPOTENCY_KEY_CONFLICT"
	CodeInsufficientStock      Code = "INSUFFICIENT_STOCK"
	CodeNotFound               Code = "NOT_FOUND"
	CodeInvalidInput           Code = "INVALID_INPUT"
	CodeInternal               Code = "INTERNAL"
)

var (
	ErrUnknownTemplate        = errors.New("unknown workflow template")
	ErrUnknownStage           = errors.New("unknown workflow stage")
	ErrStaleState             = errors.New("stale order state")
	ErrIllegalTransition      = errors.New("illegal transition")
	ErrPreConditionNotMet     = errors.New("precondition not met")
	ErrMissingArtifact        = errors.New("missing artifact")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrTimeout                = errors.New("transition timed out")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrIdempotencyKeyConflict = errors.New("idempotency key reused for a different request")
	ErrInsufficientStock      = errors.New("insufficient stock")
)

// UnknownTemplateError means the tenant has no usable template for the reference.
type UnknownTemplateError struct {
	TenantID   string
	TemplateID string
}

func NewUnknownTemplateError(tenantID, templateID string) *UnknownTemplateError {
	return &UnknownTemplateError{TenantID: tenantID, TemplateID: templateID}
}

func (e *UnknownTemplateError) Error() string {
	if e.TemplateID == "" {
		return fmt.Sprintf("%s: tenant %s has no active template", ErrUnknownTemplate, e.TenantID)
	}
	return fmt.Sprintf("%s: tenant %s, template %s", ErrUnknownTemplate, e.TenantID, e.TemplateID)
}

func (e *UnknownTemplateError) Unwrap() error { return ErrUnknownTemplate }

type UnknownStageError struct {
	Stage string
}

func NewUnknownStageError(stage string) *UnknownStageError {
	return &UnknownStageError{Stage: stage}
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownStage, sanitize(e.Stage))
}

func (e *UnknownStageError) Unwrap() error { return ErrUnknownStage }

// StaleStateError means the caller's view of the current status is out of date.
type StaleStateError struct {
	Expected string
	Actual   string
}

func NewStaleStateError(expected, actual string) *StaleStateError {
	return &StaleStateError{Expected: expected, Actual: actual}
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("%s: expected %s, order is %s", ErrStaleState, e.Expected, e.Actual)
}

func (e *StaleStateError) Unwrap() error { return ErrStaleState }

type IllegalTransitionError struct {
	From   string
	To     string
	Reason string
}

func NewIllegalTransitionError(from, to string) *IllegalTransitionError {
	return &IllegalTransitionError{From: from, To: to}
}

func NewIllegalTransitionErrorWithReason(from, to, reason string) *IllegalTransitionError {
	return &IllegalTransitionError{From: from, To: to, Reason: reason}
}

func (e *IllegalTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s -> %s (%s)", ErrIllegalTransition, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("%s: %s -> %s", ErrIllegalTransition, e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }

// PreConditionNotMetError carries the human-readable reason of the first
// unmet predicate. Reason is surfaced to users verbatim.
type PreConditionNotMetError struct {
	PreCondition string
	Reason       string
}

func NewPreConditionNotMetError(preCondition, reason string) *PreConditionNotMetError {
	return &PreConditionNotMetError{PreCondition: preCondition, Reason: reason}
}

func (e *PreConditionNotMetError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPreConditionNotMet, e.Reason)
}

func (e *PreConditionNotMetError) Unwrap() error { return ErrPreConditionNotMet }

type MissingArtifactError struct {
	Kind string
}

func NewMissingArtifactError(kind string) *MissingArtifactError {
	return &MissingArtifactError{Kind: kind}
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingArtifact, e.Kind)
}

func (e *MissingArtifactError) Unwrap() error { return ErrMissingArtifact }

type ConcurrentModificationError struct {
	Expected int64
	Actual   int64
}

func NewConcurrentModificationError(expected, actual int64) *ConcurrentModificationError {
	return &ConcurrentModificationError{Expected: expected, Actual: actual}
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s: expected version %d, order is at version %d", ErrConcurrentModification, e.Expected, e.Actual)
}

func (e *ConcurrentModificationError) Unwrap() error { return ErrConcurrentModification }

// TimeoutError wraps the context error that aborted the unit of work.
type TimeoutError struct {
	Cause error
}

func NewTimeoutError(cause error) *TimeoutError {
	return &TimeoutError{Cause: cause}
}

func (e *TimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", ErrTimeout, e.Cause)
	}
	return ErrTimeout.Error()
}

func (e *TimeoutError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrTimeout}
	}
	return []error{ErrTimeout, e.Cause}
}

type PermissionDeniedError struct {
	UserID     string
	Permission string
}

func NewPermissionDeniedError(userID, permission string) *PermissionDeniedError {
	return &PermissionDeniedError{UserID: userID, Permission: permission}
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("%s: user %s lacks %s", ErrPermissionDenied, e.UserID, e.Permission)
}

func (e *PermissionDeniedError) Unwrap() error { return ErrPermissionDenied }

type IdempotencyKeyConflictError struct {
	Key string
}

func NewIdempotencyKeyConflictError(key string) *IdempotencyKeyConflictError {
	return &IdempotencyKeyConflictError{Key: key}
}

func (e *IdempotencyKeyConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrIdempotencyKeyConflict, sanitize(e.Key))
}

func (e *IdempotencyKeyConflictError) Unwrap() error { return ErrIdempotencyKeyConflict }

type InsufficientStockError struct {
	SKU       string
	Requested int
	Available int
}

func NewInsufficientStockError(sku string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{SKU: sku, Requested: requested, Available: available}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: sku %s, requested %d, available %d", ErrInsufficientStock, e.SKU, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// CodeOf classifies err. Anything that is not a typed domain error is CodeInternal.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownTemplate):
		return CodeUnknownTemplate
	case errors.Is(err, ErrUnknownStage):
		return CodeUnknownStage
	case errors.Is(err, ErrStaleState):
		return CodeStaleState
	case errors.Is(err, ErrIllegalTransition):
		return CodeIllegalTransition
	case errors.Is(err, ErrPreConditionNotMet):
		return CodePreConditionNotMet
	case errors.Is(err, ErrMissingArtifact):
		return CodeMissingArtifact
	case errors.Is(err, ErrConcurrentModification):
		return CodeConcurrentModification
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, ErrPermissionDenied):
		return CodePermissionDenied
	case errors.Is(err, ErrIdempotencyKeyConflict):
		return CodeIdempotencyKeyConflict
	case errors.Is(err, ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, ErrObjectNotFound):
		return CodeNotFound
	case errors.Is(err, ErrValueIsInvalid), errors.Is(err, ErrValueIsRequired),
		errors.Is(err, ErrValueIsOutOfRange), errors.Is(err, ErrVersionIsInvalid):
		return CodeInvalidInput
	default:
		return CodeInternal
	}
}

// IsTransient reports whether err may be retried with the same idempotency key
// without any change of state or input.
func IsTransient(err error) bool {
	code := CodeOf(err)
	return code == CodeTimeout || code == CodeInternal
}

// IsCallerInputError reports whether err is a deterministic rejection of the
// request itself. Only these outcomes are remembered for idempotent replay.
// Insufficient stock is not one of them: a restock makes the same request valid.
func IsCallerInputError(err error) bool {
	switch CodeOf(err) {
	case CodeIllegalTransition, CodePreConditionNotMet, CodeMissingArtifact, CodeInvalidInput:
		return true
	default:
		return false
	}
}

// Descriptor is the serializable form of an error, used to replay a stored
// failure as the same typed error.
type Descriptor struct {
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Params  map[string]string `json:"params,omitempty"`
}

// Describe converts err into a Descriptor.
func Describe(err error) Descriptor {
	d := Descriptor{Code: CodeOf(err), Message: err.Error(), Params: map[string]string{}}

	var (
		illegal  *IllegalTransitionError
		precond  *PreConditionNotMetError
		missing  *MissingArtifactError
		stock    *InsufficientStockError
		invalid  *ValueIsInvalidError
		required *ValueIsRequiredError
	)
	switch {
	case errors.As(err, &illegal):
		d.Params["from"], d.Params["to"], d.Params["reason"] = illegal.From, illegal.To, illegal.Reason
	case errors.As(err, &precond):
		d.Params["precondition"], d.Params["reason"] = precond.PreCondition, precond.Reason
	case errors.As(err, &missing):
		d.Params["kind"] = missing.Kind
	case errors.As(err, &stock):
		d.Params["sku"] = stock.SKU
		d.Params["requested"] = strconv.Itoa(stock.Requested)
		d.Params["available"] = strconv.Itoa(stock.Available)
	case errors.As(err, &invalid):
		d.Params["param"] = invalid.ParamName
	case errors.As(err, &required):
		d.Params["param"] = required.ParamName
	}
	return d
}

// Err rebuilds the typed error a Descriptor was created from. Codes without
// parameters come back as their sentinel wrapped with the stored message.
func (d Descriptor) Err() error {
	p := d.Params
	switch d.Code {
	case CodeIllegalTransition:
		return NewIllegalTransitionErrorWithReason(p["from"], p["to"], p["reason"])
	case CodePreConditionNotMet:
		return NewPreConditionNotMetError(p["precondition"], p["reason"])
	case CodeMissingArtifact:
		return NewMissingArtifactError(p["kind"])
	case CodeInsufficientStock:
		requested, _ := strconv.Atoi(p["requested"])
		available, _ := strconv.Atoi(p["available"])
		return NewInsufficientStockError(p["sku"], requested, available)
	case CodeInvalidInput:
		return NewValueIsInvalidErrorWithCause(p["param"], errors.New(d.Message))
	default:
		return fmt.Errorf("%s: %s", d.Code, d.Message)
	}
}
