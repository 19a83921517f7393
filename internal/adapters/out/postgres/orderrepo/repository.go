package orderrepo

import (
	"context"
	"errors"
	"fmt"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM order repository. The handle is
// either the unit of work's transaction or the plain connection.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add saves a new order to the database.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto, err := fromDomain(aggregate)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Update writes the full state of the order guarded by its stored version.
// Zero affected rows means the order is gone or another writer bumped the
// version first; a second read tells the two apart.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order, expectedVersion int64) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto, err := fromDomain(aggregate)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND tenant_id = ? AND version = ?", dto.ID, dto.TenantID, expectedVersion).
		Select("*").Omit("id", "tenant_id", "created_at").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var stored OrderDTO
	err = r.db.WithContext(ctx).
		Select("version").
		First(&stored, "id = ? AND tenant_id = ?", dto.ID, dto.TenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}
	if err != nil {
		return err
	}
	return errs.NewConcurrentModificationError(expectedVersion, stored.Version)
}

// Get retrieves an order by ID within a tenant.
func (r *GormOrderRepository) Get(ctx context.Context, tenantID, id kernel.UUID) (*order.Order, error) {
	return r.get(r.db.WithContext(ctx), tenantID, id)
}

// GetForUpdate retrieves an order with SELECT ... FOR UPDATE. The lock is held
// until the surrounding transaction ends.
func (r *GormOrderRepository) GetForUpdate(ctx context.Context, tenantID, id kernel.UUID) (*order.Order, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *GormOrderRepository) get(db *gorm.DB, tenantID, id kernel.UUID) (*order.Order, error) {
	if err := errors.Join(tenantID.Validate(), id.Validate()); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := db.First(&dto, "id = ? AND tenant_id = ?", id.Bytes(), tenantID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// ListActiveInStatus retrieves one page of active orders, least recently
// updated first, using a keyset cursor on (updated_at, id).
func (r *GormOrderRepository) ListActiveInStatus(ctx context.Context, q ports.ActiveOrderQuery) ([]*order.Order, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND template_id = ? AND template_version = ? AND active = ? AND status = ?",
			q.TenantID.Bytes(), q.Template.TemplateID.Bytes(), q.Template.Version, true, q.Status.String()).
		Order("updated_at ASC, id ASC")
	if q.After != nil {
		query = query.Where("(updated_at, id) > (?, ?)", q.After.UpdatedAt, q.After.ID.Bytes())
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var dtos []OrderDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, fmt.Errorf("restore order %s: %w", dto.ID, err)
		}
		orders = append(orders, o)
	}

	return orders, nil
}
