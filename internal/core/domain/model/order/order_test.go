package order_test

import (
	"testing"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	received  = workflow.Stage{Code: workflow.StatusReceived, Phase: workflow.PhaseIntake, Sequence: 10}
	inProcess = workflow.Stage{Code: workflow.StatusInProcess, Phase: workflow.PhaseProcessing, Sequence: 30}
)

func newOrder(t *testing.T, total int) *order.Order {
	t.Helper()
	ref := workflow.Ref{TemplateID: kernel.NewUUID(), Version: 1}
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), ref, received, total, nil, time.Now())
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	id, tenant := kernel.NewUUID(), kernel.NewUUID()
	ref := workflow.Ref{TemplateID: kernel.NewUUID(), Version: 2}
	lines := []order.RetailLine{{SKU: "HANGER-01", Quantity: 2}}

	t.Run("should create order at the initial stage", func(t *testing.T) {
		o, err := order.NewOrder(id, tenant, ref, received, 3, lines, time.Now())

		require.NoError(t, err)
		require.NoError(t, o.Validate())
		assert.True(t, o.ID().IsEqual(id))
		assert.True(t, o.TenantID().IsEqual(tenant))
		assert.Equal(t, ref, o.Template())
		assert.Equal(t, workflow.StatusReceived, o.Status())
		assert.Equal(t, workflow.PhaseIntake, o.Phase())
		assert.Equal(t, int64(1), o.Version())
		assert.Equal(t, order.Counters{TotalItems: 3}, o.Counters())
		assert.Equal(t, lines, o.RetailLines())
		assert.True(t, o.IsActive())
		assert.False(t, o.QADecision().IsRecorded())
	})

	t.Run("should fail with zero items", func(t *testing.T) {
		o, err := order.NewOrder(id, tenant, ref, received, 0, nil, time.Now())

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Nil(t, o)
		assert.Contains(t, err.Error(), "0 is not greater than 0")
	})

	t.Run("should fail with invalid retail lines", func(t *testing.T) {
		_, err := order.NewOrder(id, tenant, ref, received, 1, []order.RetailLine{{SKU: "A", Quantity: 0}}, time.Now())
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)

		_, err = order.NewOrder(id, tenant, ref, received, 1, []order.RetailLine{{Quantity: 1}}, time.Now())
		require.ErrorIs(t, err, errs.ErrValueIsRequired)

		_, err = order.NewOrder(id, tenant, ref, received, 1,
			[]order.RetailLine{{SKU: "A", Quantity: 1}, {SKU: "A", Quantity: 2}}, time.Now())
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should join multiple validation errors", func(t *testing.T) {
		var invalidID kernel.UUID

		o, err := order.NewOrder(invalidID, tenant, workflow.Ref{TemplateID: kernel.NewUUID()}, received, -1, nil, time.Now())

		require.Error(t, err)
		assert.Nil(t, o)
		assert.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
		assert.ErrorIs(t, err, errs.ErrVersionIsInvalid)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestOrder_ApplyTransition(t *testing.T) {
	o := newOrder(t, 1)

	require.NoError(t, o.ApplyTransition(inProcess, time.Now()))

	assert.Equal(t, workflow.StatusInProcess, o.Status())
	assert.Equal(t, workflow.PhaseProcessing, o.Phase())
	assert.Equal(t, int64(2), o.Version())

	o.Deactivate(time.Now())
	err := o.ApplyTransition(received, time.Now())

	require.ErrorIs(t, err, order.ErrOrderIsInactive)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	assert.Equal(t, int64(2), o.Version())
}

func TestOrder_Counters(t *testing.T) {
	o := newOrder(t, 2)

	require.NoError(t, o.RecordScan(time.Now()))
	assert.False(t, o.AllItemsScanned())
	require.NoError(t, o.RecordScan(time.Now()))
	assert.True(t, o.AllItemsScanned())
	require.ErrorIs(t, o.RecordScan(time.Now()), errs.ErrValueIsOutOfRange)

	require.NoError(t, o.RaiseExceptions(2, time.Now()))
	require.ErrorIs(t, o.RaiseExceptions(1, time.Now()), errs.ErrValueIsOutOfRange)
	require.NoError(t, o.ResolveExceptions(1, time.Now()))
	require.ErrorIs(t, o.ResolveExceptions(2, time.Now()), errs.ErrValueIsOutOfRange)
	require.ErrorIs(t, o.ResolveExceptions(-1, time.Now()), errs.ErrValueIsInvalid)

	assert.Equal(t, order.Counters{TotalItems: 2, ScannedItems: 2, ExceptionItems: 1}, o.Counters())
	assert.Equal(t, int64(1), o.Version(), "counter updates must not bump the version")
}

func TestOrder_QADecision(t *testing.T) {
	o := newOrder(t, 1)

	d, err := order.ParseQADecision("failed")
	require.NoError(t, err)
	o.RecordQADecision(d, time.Now())
	assert.Equal(t, order.QAFailed, o.QADecision())

	_, err = order.ParseQADecision("maybe")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestRestoreOrder(t *testing.T) {
	o := newOrder(t, 3)
	require.NoError(t, o.RecordScan(time.Now()))
	require.NoError(t, o.ApplyTransition(inProcess, time.Now()))

	restored, err := order.RestoreOrder(o.Snapshot())

	require.NoError(t, err)
	assert.Equal(t, o.Snapshot(), restored.Snapshot())

	t.Run("rejects corrupted counters", func(t *testing.T) {
		s := o.Snapshot()
		s.Counters.ScannedItems = 4

		_, err := order.RestoreOrder(s)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("rejects version zero", func(t *testing.T) {
		s := o.Snapshot()
		s.Version = 0

		_, err := order.RestoreOrder(s)

		require.ErrorIs(t, err, errs.ErrVersionIsInvalid)
	})
}

func TestOrder_CloneIsIndependent(t *testing.T) {
	ref := workflow.Ref{TemplateID: kernel.NewUUID(), Version: 1}
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), ref, received, 1,
		[]order.RetailLine{{SKU: "BAG", Quantity: 1}}, time.Now())
	require.NoError(t, err)

	c := o.Clone()
	require.NoError(t, c.ApplyTransition(inProcess, time.Now()))

	assert.Equal(t, workflow.StatusReceived, o.Status())
	assert.Equal(t, int64(1), o.Version())
	assert.Equal(t, int64(2), c.Version())
}

func TestOrder_ZeroValueIsNotConstructed(t *testing.T) {
	var o *order.Order

	require.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)
}
