package metrics_test

import (
	"testing"
	"time"

	"orderflow/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveTransition("processing", metrics.OutcomeAccepted, "", 10*time.Millisecond)
	m.ObserveTransition("processing", metrics.OutcomeRejected, "PRECONDITION_NOT_MET", time.Millisecond)
	m.ObserveOutbox("notify_customer", "published")
	m.AddPurged(3)
	m.IncAutoAdvanced()

	n, err := testutil.GatherAndCount(reg, "orderflow_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveTransition("qa", metrics.OutcomeFailed, "INTERNAL", time.Second)
		m.ObserveOutbox("t", "failed")
		m.AddPurged(1)
		m.IncAutoAdvanced()
	})
}
