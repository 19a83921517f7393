package recordrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/artifact"
	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/idempotency"
	"orderflow/internal/core/domain/model/inventory"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/outbox"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormHistoryRepository is the append-only transition audit trail.
type GormHistoryRepository struct {
	db *gorm.DB
}

func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// Add inserts with ON CONFLICT DO NOTHING so a duplicate key does not abort
// the surrounding transaction; zero affected rows is reported as a conflict.
func (r *GormHistoryRepository) Add(ctx context.Context, record history.Record) error {
	dto, err := historyFromDomain(record)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewIdempotencyKeyConflictError(record.IdempotencyKey)
	}
	return nil
}

func (r *GormHistoryRepository) ListByOrder(ctx context.Context, tenantID, orderID kernel.UUID) ([]history.Record, error) {
	var dtos []HistoryDTO
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID.Bytes(), orderID.Bytes()).
		Order("resulting_version ASC").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	out := make([]history.Record, 0, len(dtos))
	for _, dto := range dtos {
		rec, err := historyToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// GormIdempotencyRepository stores request outcomes keyed by (tenant, key).
type GormIdempotencyRepository struct {
	db *gorm.DB
}

func NewGormIdempotencyRepository(db *gorm.DB) *GormIdempotencyRepository {
	return &GormIdempotencyRepository{db: db}
}

func (r *GormIdempotencyRepository) Get(ctx context.Context, tenantID kernel.UUID, key string) (idempotency.Record, error) {
	var dto IdempotencyDTO
	err := r.db.WithContext(ctx).First(&dto, "tenant_id = ? AND idempotency_key = ?", tenantID.Bytes(), key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return idempotency.Record{}, errs.NewObjectNotFoundError("idempotency key", key)
	}
	if err != nil {
		return idempotency.Record{}, err
	}
	return idempotencyToDomain(dto)
}

func (r *GormIdempotencyRepository) Add(ctx context.Context, record idempotency.Record) error {
	dto, err := idempotencyFromDomain(record)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewIdempotencyKeyConflictError(record.Key)
	}
	return nil
}

func (r *GormIdempotencyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&IdempotencyDTO{})
	return result.RowsAffected, result.Error
}

// GormOutboxRepository holds messages written inside transition transactions.
type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

func (r *GormOutboxRepository) Add(ctx context.Context, entry outbox.Entry) error {
	dto, err := outboxFromDomain(entry)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&dto).Error
}

// ListPending locks the returned rows with FOR UPDATE SKIP LOCKED, so
// concurrent relays inside their own transactions pick disjoint batches.
func (r *GormOutboxRepository) ListPending(ctx context.Context, limit int) ([]outbox.Entry, error) {
	query := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", string(outbox.Pending)).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dtos []OutboxDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]outbox.Entry, 0, len(dtos))
	for _, dto := range dtos {
		e, err := outboxToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *GormOutboxRepository) Update(ctx context.Context, entry outbox.Entry) error {
	result := r.db.WithContext(ctx).
		Model(&OutboxDTO{}).
		Where("id = ?", entry.ID.Bytes()).
		Updates(map[string]any{
			"status":       string(entry.Status),
			"attempts":     entry.Attempts,
			"last_error":   entry.LastError,
			"published_at": entry.PublishedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("outbox entry", entry.ID.String())
	}
	return nil
}

type GormArtifactRepository struct {
	db *gorm.DB
}

func NewGormArtifactRepository(db *gorm.DB) *GormArtifactRepository {
	return &GormArtifactRepository{db: db}
}

func (r *GormArtifactRepository) Add(ctx context.Context, a artifact.Artifact) error {
	dto := ArtifactDTO{
		ID:        a.ID.Bytes(),
		TenantID:  a.TenantID.Bytes(),
		OrderID:   a.OrderID.Bytes(),
		Kind:      a.Kind.String(),
		Reference: a.Reference,
		CreatedAt: a.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *GormArtifactRepository) ListByOrder(ctx context.Context, tenantID, orderID kernel.UUID) ([]artifact.Artifact, error) {
	var dtos []ArtifactDTO
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID.Bytes(), orderID.Bytes()).
		Order("created_at ASC").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	out := make([]artifact.Artifact, 0, len(dtos))
	for _, dto := range dtos {
		a, err := artifactToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

type GormDocumentRepository struct {
	db *gorm.DB
}

func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Add rejects a number already issued for the tenant and document kind.
func (r *GormDocumentRepository) Add(ctx context.Context, d artifact.Document) error {
	content, err := encodeJSON("document content", d.Content)
	if err != nil {
		return err
	}
	dto := DocumentDTO{
		ID:        d.ID.Bytes(),
		TenantID:  d.TenantID.Bytes(),
		OrderID:   d.OrderID.Bytes(),
		Kind:      string(d.Kind),
		Number:    d.Number,
		Content:   content,
		CreatedAt: d.CreatedAt,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewValueIsInvalidErrorWithCause("document", fmt.Errorf("number %s already issued", d.Number))
	}
	return nil
}

func (r *GormDocumentRepository) ListByOrder(ctx context.Context, tenantID, orderID kernel.UUID) ([]artifact.Document, error) {
	var dtos []DocumentDTO
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID.Bytes(), orderID.Bytes()).
		Order("created_at ASC").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	out := make([]artifact.Document, 0, len(dtos))
	for _, dto := range dtos {
		d, err := documentToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

type GormInventoryRepository struct {
	db *gorm.DB
}

func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

func (r *GormInventoryRepository) GetForUpdate(ctx context.Context, tenantID kernel.UUID, sku string) (inventory.StockItem, error) {
	var dto StockItemDTO
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&dto, "tenant_id = ? AND sku = ?", tenantID.Bytes(), sku).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return inventory.StockItem{}, errs.NewObjectNotFoundError("stock item", sku)
	}
	if err != nil {
		return inventory.StockItem{}, err
	}
	return stockToDomain(dto)
}

func (r *GormInventoryRepository) Save(ctx context.Context, item inventory.StockItem) error {
	dto := StockItemDTO{TenantID: item.TenantID.Bytes(), SKU: item.SKU, OnHand: item.OnHand}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{"on_hand"}),
	}).Create(&dto).Error
}
