package http

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Path parameters.
type (
	TenantId = openapi_types.UUID
	OrderId  = openapi_types.UUID
)

type RetailLine struct {
	Sku      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type NewOrder struct {
	OrderId     *openapi_types.UUID `json:"orderId,omitempty"`
	TotalItems  int                 `json:"totalItems"`
	RetailLines []RetailLine        `json:"retailLines,omitempty"`
}

type Counters struct {
	TotalItems     int `json:"totalItems"`
	ScannedItems   int `json:"scannedItems"`
	ExceptionItems int `json:"exceptionItems"`
}

type Order struct {
	Id              openapi_types.UUID `json:"id"`
	TenantId        openapi_types.UUID `json:"tenantId"`
	TemplateId      openapi_types.UUID `json:"templateId"`
	TemplateVersion int                `json:"templateVersion"`
	Status          string             `json:"status"`
	Phase           string             `json:"phase"`
	Version         int64              `json:"version"`
	Counters        Counters           `json:"counters"`
	QaDecision      string             `json:"qaDecision,omitempty"`
	RetailLines     []RetailLine       `json:"retailLines,omitempty"`
	Active          bool               `json:"active"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// Input is the free-form payload a screen submits with its action.
type Input = map[string]any

type ScreenTransitionRequest struct {
	FromStatus      *string `json:"fromStatus,omitempty"`
	ToStatus        *string `json:"toStatus,omitempty"`
	ExpectedVersion *int64  `json:"expectedVersion,omitempty"`
	Input           Input   `json:"input,omitempty"`
}

type TransitionRequest struct {
	Screen          string `json:"screen"`
	FromStatus      string `json:"fromStatus"`
	ToStatus        string `json:"toStatus"`
	ExpectedVersion *int64 `json:"expectedVersion,omitempty"`
	Input           Input  `json:"input,omitempty"`
}

type TransitionResult struct {
	OrderId    openapi_types.UUID `json:"orderId"`
	From       string             `json:"from"`
	To         string             `json:"to"`
	Phase      string             `json:"phase"`
	Version    int64              `json:"version"`
	HistoryId  openapi_types.UUID `json:"historyId"`
	OccurredAt time.Time          `json:"occurredAt"`
	Replayed   bool               `json:"replayed"`
}

type PreviewRequest struct {
	Screen     string  `json:"screen"`
	FromStatus *string `json:"fromStatus,omitempty"`
	ToStatus   string  `json:"toStatus"`
	Input      Input   `json:"input,omitempty"`
}

type PreviewResult struct {
	Allowed       bool     `json:"allowed"`
	Code          string   `json:"code,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	PreConditions []string `json:"preConditions,omitempty"`
	Effects       []string `json:"effects,omitempty"`
}

type AllowedTransition struct {
	To      string `json:"to"`
	Allowed bool   `json:"allowed"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type AllowedTransitions struct {
	OrderId     openapi_types.UUID  `json:"orderId"`
	Status      string              `json:"status"`
	Phase       string              `json:"phase"`
	Version     int64               `json:"version"`
	Transitions []AllowedTransition `json:"transitions"`
}

type HistoryEntry struct {
	Id             openapi_types.UUID `json:"id"`
	Screen         string             `json:"screen"`
	From           string             `json:"from"`
	To             string             `json:"to"`
	Actor          string             `json:"actor"`
	OccurredAt     time.Time          `json:"occurredAt"`
	Input          Input              `json:"input,omitempty"`
	IdempotencyKey string             `json:"idempotencyKey"`
	Version        int64              `json:"version"`
}

type ItemScan struct {
	Tag       *string `json:"tag,omitempty"`
	Exception *bool   `json:"exception,omitempty"`
}

type ExceptionResolution struct {
	Count int `json:"count"`
}

type NewArtifact struct {
	Kind      string `json:"kind"`
	Reference string `json:"reference"`
}

type Artifact struct {
	Id        openapi_types.UUID `json:"id"`
	OrderId   openapi_types.UUID `json:"orderId"`
	Kind      string             `json:"kind"`
	Reference string             `json:"reference"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Status  int               `json:"status"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Params  map[string]string `json:"params,omitempty"`
}

// ScreenTransitionParams defines parameters for ScreenTransition.
type ScreenTransitionParams struct {
	IdempotencyKey string
	XUserID        string
}

// ExecuteTransitionParams defines parameters for ExecuteTransition.
type ExecuteTransitionParams struct {
	IdempotencyKey string
	XUserID        string
}

// PreviewTransitionParams defines parameters for PreviewTransition.
type PreviewTransitionParams struct {
	XUserID string
}

// GetAllowedTransitionsParams defines parameters for GetAllowedTransitions.
type GetAllowedTransitionsParams struct {
	Screen  string
	XUserID string
}
