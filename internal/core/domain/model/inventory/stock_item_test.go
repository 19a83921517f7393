package inventory_test

import (
	"testing"

	"orderflow/internal/core/domain/model/inventory"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockItem_Deduct(t *testing.T) {
	item, err := inventory.NewStockItem(kernel.NewUUID(), "HANGER-01", 5)
	require.NoError(t, err)

	require.NoError(t, item.Deduct(3))
	assert.Equal(t, 2, item.OnHand)

	err = item.Deduct(3)
	require.ErrorIs(t, err, errs.ErrInsufficientStock)
	assert.Equal(t, 2, item.OnHand)

	require.ErrorIs(t, item.Deduct(0), errs.ErrValueIsInvalid)
}

func TestNewStockItem_Rejects(t *testing.T) {
	_, err := inventory.NewStockItem(kernel.NewUUID(), "", 1)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = inventory.NewStockItem(kernel.NewUUID(), "A", -1)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}
