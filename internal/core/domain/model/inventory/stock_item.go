// Package inventory holds the tenant stock the deduct_stock effect draws from.
package inventory

import (
	"fmt"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

// StockItem is the on-hand quantity of one SKU for a tenant.
type StockItem struct {
	TenantID kernel.UUID
	SKU      string
	OnHand   int
}

// NewStockItem validates a stock row.
func NewStockItem(tenantID kernel.UUID, sku string, onHand int) (StockItem, error) {
	if err := tenantID.Validate(); err != nil {
		return StockItem{}, err
	}
	if sku == "" {
		return StockItem{}, errs.NewValueIsRequiredError("sku")
	}
	if onHand < 0 {
		return StockItem{}, errs.NewValueIsInvalidErrorWithCause("onHand", fmt.Errorf("%d is negative", onHand))
	}
	return StockItem{TenantID: tenantID, SKU: sku, OnHand: onHand}, nil
}

// Deduct removes quantity from stock, refusing to go negative.
func (s *StockItem) Deduct(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}
	if quantity > s.OnHand {
		return errs.NewInsufficientStockError(s.SKU, quantity, s.OnHand)
	}
	s.OnHand -= quantity
	return nil
}
