// Package recordrepo persists the records written around an order transition:
// history, idempotency outcomes, outbox messages, artifacts, documents and
// tenant stock.
package recordrepo

import (
	"encoding/json"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/artifact"
	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/idempotency"
	"orderflow/internal/core/domain/model/inventory"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/outbox"
	"orderflow/internal/core/domain/model/workflow"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// HistoryDTO is one accepted transition. The idempotency key is unique per
// tenant and the resulting version is unique per order.
type HistoryDTO struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_history_tenant_key,priority:1"`
	OrderID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_history_order_version,priority:1"`
	Screen           string         `gorm:"size:64;not null"`
	FromStatus       string         `gorm:"size:64;not null"`
	ToStatus         string         `gorm:"size:64;not null"`
	ActorKind        string         `gorm:"size:16;not null"`
	ActorID          string         `gorm:"size:255;not null"`
	OccurredAt       time.Time      `gorm:"not null"`
	Input            datatypes.JSON `gorm:"type:jsonb"`
	IdempotencyKey   string         `gorm:"size:255;not null;uniqueIndex:idx_history_tenant_key,priority:2"`
	ResultingVersion int64          `gorm:"not null;uniqueIndex:idx_history_order_version,priority:2"`
}

func (HistoryDTO) TableName() string {
	return "transition_history"
}

// IdempotencyDTO stores the outcome of the first request seen under a key.
type IdempotencyDTO struct {
	TenantID  uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Key       string         `gorm:"column:idempotency_key;size:255;primaryKey"`
	OrderID   uuid.UUID      `gorm:"type:uuid;not null"`
	Screen    string         `gorm:"size:64;not null"`
	ToStatus  string         `gorm:"size:64;not null"`
	Outcome   string         `gorm:"size:16;not null"`
	Result    datatypes.JSON `gorm:"type:jsonb"`
	Failure   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null;index"`
}

func (IdempotencyDTO) TableName() string {
	return "idempotency_records"
}

// OutboxDTO is a message waiting for the relay.
type OutboxDTO struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID      `gorm:"type:uuid;not null"`
	OrderID     uuid.UUID      `gorm:"type:uuid;not null"`
	Topic       string         `gorm:"size:128;not null"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null"`
	Status      string         `gorm:"size:16;not null;index:idx_outbox_status_created,priority:1"`
	Attempts    int            `gorm:"not null;default:0"`
	LastError   string         `gorm:"type:text"`
	CreatedAt   time.Time      `gorm:"not null;index:idx_outbox_status_created,priority:2"`
	PublishedAt *time.Time
}

func (OutboxDTO) TableName() string {
	return "outbox_messages"
}

type ArtifactDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index:idx_artifacts_order,priority:1"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index:idx_artifacts_order,priority:2"`
	Kind      string    `gorm:"size:32;not null"`
	Reference string    `gorm:"size:512;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (ArtifactDTO) TableName() string {
	return "order_artifacts"
}

// DocumentDTO is a generated document. Numbers are unique per tenant and kind.
type DocumentDTO struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_documents_number,priority:1"`
	OrderID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Kind      string         `gorm:"size:32;not null;uniqueIndex:idx_documents_number,priority:2"`
	Number    string         `gorm:"size:128;not null;uniqueIndex:idx_documents_number,priority:3"`
	Content   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null"`
}

func (DocumentDTO) TableName() string {
	return "order_documents"
}

type StockItemDTO struct {
	TenantID uuid.UUID `gorm:"type:uuid;primaryKey"`
	SKU      string    `gorm:"size:128;primaryKey"`
	OnHand   int       `gorm:"not null"`
}

func (StockItemDTO) TableName() string {
	return "stock_items"
}

func encodeJSON(what string, v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", what, err)
	}
	return datatypes.JSON(raw), nil
}

func decodeJSON(what string, raw datatypes.JSON, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	return nil
}

func ids(raw ...uuid.UUID) ([]kernel.UUID, error) {
	out := make([]kernel.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := kernel.UUIDFromBytes(r[:])
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func historyFromDomain(r history.Record) (HistoryDTO, error) {
	input, err := encodeJSON("history input", r.Input)
	if err != nil {
		return HistoryDTO{}, err
	}
	return HistoryDTO{
		ID:               r.ID.Bytes(),
		TenantID:         r.TenantID.Bytes(),
		OrderID:          r.OrderID.Bytes(),
		Screen:           r.Screen,
		FromStatus:       r.From.String(),
		ToStatus:         r.To.String(),
		ActorKind:        string(r.Actor.Kind),
		ActorID:          r.Actor.ID,
		OccurredAt:       r.OccurredAt,
		Input:            input,
		IdempotencyKey:   r.IdempotencyKey,
		ResultingVersion: r.ResultingVersion,
	}, nil
}

func historyToDomain(dto HistoryDTO) (history.Record, error) {
	parsed, err := ids(dto.ID, dto.TenantID, dto.OrderID)
	if err != nil {
		return history.Record{}, err
	}
	var input map[string]any
	if err := decodeJSON("history input", dto.Input, &input); err != nil {
		return history.Record{}, err
	}
	return history.Record{
		ID:               parsed[0],
		TenantID:         parsed[1],
		OrderID:          parsed[2],
		Screen:           dto.Screen,
		From:             workflow.StatusCode(dto.FromStatus),
		To:               workflow.StatusCode(dto.ToStatus),
		Actor:            kernel.Actor{ID: dto.ActorID, Kind: kernel.ActorKind(dto.ActorKind)},
		OccurredAt:       dto.OccurredAt.UTC(),
		Input:            input,
		IdempotencyKey:   dto.IdempotencyKey,
		ResultingVersion: dto.ResultingVersion,
	}, nil
}

func idempotencyFromDomain(r idempotency.Record) (IdempotencyDTO, error) {
	dto := IdempotencyDTO{
		TenantID:  r.TenantID.Bytes(),
		Key:       r.Key,
		OrderID:   r.Fingerprint.OrderID.Bytes(),
		Screen:    r.Fingerprint.Screen,
		ToStatus:  r.Fingerprint.ToStatus.String(),
		Outcome:   string(r.Outcome),
		CreatedAt: r.CreatedAt,
	}

	var err error
	switch r.Outcome {
	case idempotency.Succeeded:
		dto.Result, err = encodeJSON("idempotency result", r.Result)
	case idempotency.Failed:
		dto.Failure, err = encodeJSON("idempotency failure", r.Failure)
	}
	return dto, err
}

func idempotencyToDomain(dto IdempotencyDTO) (idempotency.Record, error) {
	parsed, err := ids(dto.TenantID, dto.OrderID)
	if err != nil {
		return idempotency.Record{}, err
	}

	rec := idempotency.Record{
		TenantID: parsed[0],
		Key:      dto.Key,
		Fingerprint: idempotency.Fingerprint{
			OrderID:  parsed[1],
			Screen:   dto.Screen,
			ToStatus: workflow.StatusCode(dto.ToStatus),
		},
		Outcome:   idempotency.Outcome(dto.Outcome),
		CreatedAt: dto.CreatedAt.UTC(),
	}
	if err := decodeJSON("idempotency result", dto.Result, &rec.Result); err != nil {
		return idempotency.Record{}, err
	}
	if err := decodeJSON("idempotency failure", dto.Failure, &rec.Failure); err != nil {
		return idempotency.Record{}, err
	}
	return rec, nil
}

func outboxFromDomain(e outbox.Entry) (OutboxDTO, error) {
	payload, err := encodeJSON("outbox payload", e.Payload)
	if err != nil {
		return OutboxDTO{}, err
	}
	return OutboxDTO{
		ID:          e.ID.Bytes(),
		TenantID:    e.TenantID.Bytes(),
		OrderID:     e.OrderID.Bytes(),
		Topic:       e.Topic,
		Payload:     payload,
		Status:      string(e.Status),
		Attempts:    e.Attempts,
		LastError:   e.LastError,
		CreatedAt:   e.CreatedAt,
		PublishedAt: e.PublishedAt,
	}, nil
}

func outboxToDomain(dto OutboxDTO) (outbox.Entry, error) {
	parsed, err := ids(dto.ID, dto.TenantID, dto.OrderID)
	if err != nil {
		return outbox.Entry{}, err
	}
	var payload map[string]any
	if err := decodeJSON("outbox payload", dto.Payload, &payload); err != nil {
		return outbox.Entry{}, err
	}
	return outbox.Entry{
		ID:          parsed[0],
		TenantID:    parsed[1],
		OrderID:     parsed[2],
		Topic:       dto.Topic,
		Payload:     payload,
		Status:      outbox.Status(dto.Status),
		Attempts:    dto.Attempts,
		LastError:   dto.LastError,
		CreatedAt:   dto.CreatedAt.UTC(),
		PublishedAt: dto.PublishedAt,
	}, nil
}

func artifactToDomain(dto ArtifactDTO) (artifact.Artifact, error) {
	parsed, err := ids(dto.ID, dto.TenantID, dto.OrderID)
	if err != nil {
		return artifact.Artifact{}, err
	}
	return artifact.Artifact{
		ID:        parsed[0],
		TenantID:  parsed[1],
		OrderID:   parsed[2],
		Kind:      artifact.Kind(dto.Kind),
		Reference: dto.Reference,
		CreatedAt: dto.CreatedAt.UTC(),
	}, nil
}

func documentToDomain(dto DocumentDTO) (artifact.Document, error) {
	parsed, err := ids(dto.ID, dto.TenantID, dto.OrderID)
	if err != nil {
		return artifact.Document{}, err
	}
	var content map[string]any
	if err := decodeJSON("document content", dto.Content, &content); err != nil {
		return artifact.Document{}, err
	}
	return artifact.Document{
		ID:        parsed[0],
		TenantID:  parsed[1],
		OrderID:   parsed[2],
		Kind:      artifact.DocumentKind(dto.Kind),
		Number:    dto.Number,
		Content:   content,
		CreatedAt: dto.CreatedAt.UTC(),
	}, nil
}

func stockToDomain(dto StockItemDTO) (inventory.StockItem, error) {
	tenantID, err := kernel.UUIDFromBytes(dto.TenantID[:])
	if err != nil {
		return inventory.StockItem{}, err
	}
	return inventory.NewStockItem(tenantID, dto.SKU, dto.OnHand)
}
