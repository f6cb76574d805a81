package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RecordIntake("review")
	m.RecordIntake("review")
	m.RecordValidation("fallback", 3*time.Millisecond)
	m.RecordFallback("timeout")
	m.RecordReviewOp("enqueue", "ok")
	m.RecordPendingDrift()

	assert.InDelta(t, 2, testutil.ToFloat64(m.intakeTotal.WithLabelValues("review")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.validationTotal.WithLabelValues("fallback")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.validationFallback.WithLabelValues("timeout")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.reviewOps.WithLabelValues("enqueue", "ok")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.reviewDrift), 1e-9)

	n, err := testutil.GatherAndCount(reg, "rxintake_validation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetricsDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordIntake("downstream")
		m.RecordValidation("external", time.Second)
		m.RecordFallback("exec")
		m.RecordReviewOp("approve", "not_found")
		m.RecordPendingDrift()
	})
}
