// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"encoding/json"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/workflow"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OrderDTO represents the database structure for persisting order aggregates.
// The composite status index serves the auto-advance scan; the tenant index
// serves every caller-facing read.
type OrderDTO struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID      `gorm:"type:uuid;not null;index"`
	TemplateID      uuid.UUID      `gorm:"type:uuid;not null"`
	TemplateVersion int            `gorm:"not null"`
	Status          string         `gorm:"size:64;not null;index:idx_orders_active_status,priority:2"`
	Phase           string         `gorm:"size:64;not null"`
	Version         int64          `gorm:"not null"`
	TotalItems      int            `gorm:"not null"`
	ScannedItems    int            `gorm:"not null;default:0"`
	ExceptionItems  int            `gorm:"not null;default:0"`
	QADecision      string         `gorm:"column:qa_decision;size:16"`
	RetailLines     datatypes.JSON `gorm:"type:jsonb"`
	Active          bool           `gorm:"not null;index:idx_orders_active_status,priority:1"`
	CreatedAt       time.Time      `gorm:"not null"`
	UpdatedAt       time.Time      `gorm:"not null"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// RetailLineDTO is the JSON shape of one retail line inside OrderDTO.RetailLines.
type RetailLineDTO struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

func fromDomain(o *order.Order) (OrderDTO, error) {
	lines := make([]RetailLineDTO, 0, len(o.RetailLines()))
	for _, l := range o.RetailLines() {
		lines = append(lines, RetailLineDTO{SKU: l.SKU, Quantity: l.Quantity})
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return OrderDTO{}, fmt.Errorf("encode retail lines: %w", err)
	}

	c := o.Counters()
	return OrderDTO{
		ID:              o.ID().Bytes(),
		TenantID:        o.TenantID().Bytes(),
		TemplateID:      o.Template().TemplateID.Bytes(),
		TemplateVersion: o.Template().Version,
		Status:          o.Status().String(),
		Phase:           string(o.Phase()),
		Version:         o.Version(),
		TotalItems:      c.TotalItems,
		ScannedItems:    c.ScannedItems,
		ExceptionItems:  c.ExceptionItems,
		QADecision:      string(o.QADecision()),
		RetailLines:     datatypes.JSON(raw),
		Active:          o.IsActive(),
		CreatedAt:       o.CreatedAt(),
		UpdatedAt:       o.UpdatedAt(),
	}, nil
}

// toDomain rebuilds the aggregate with RestoreOrder, so rows violating the
// counter invariants are rejected.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	tenantID, err := kernel.UUIDFromBytes(dto.TenantID[:])
	if err != nil {
		return nil, err
	}
	templateID, err := kernel.UUIDFromBytes(dto.TemplateID[:])
	if err != nil {
		return nil, err
	}

	var lines []RetailLineDTO
	if len(dto.RetailLines) > 0 {
		if err := json.Unmarshal(dto.RetailLines, &lines); err != nil {
			return nil, fmt.Errorf("decode retail lines of order %s: %w", id, err)
		}
	}
	retail := make([]order.RetailLine, 0, len(lines))
	for _, l := range lines {
		retail = append(retail, order.RetailLine{SKU: l.SKU, Quantity: l.Quantity})
	}

	return order.RestoreOrder(order.Snapshot{
		ID:       id,
		TenantID: tenantID,
		Template: workflow.Ref{TemplateID: templateID, Version: dto.TemplateVersion},
		Status:   workflow.StatusCode(dto.Status),
		Phase:    workflow.Phase(dto.Phase),
		Version:  dto.Version,
		Counters: order.Counters{
			TotalItems:     dto.TotalItems,
			ScannedItems:   dto.ScannedItems,
			ExceptionItems: dto.ExceptionItems,
		},
		QADecision:  order.QADecision(dto.QADecision),
		RetailLines: retail,
		Active:      dto.Active,
		CreatedAt:   dto.CreatedAt,
		UpdatedAt:   dto.UpdatedAt,
	})
}
