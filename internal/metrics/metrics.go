// Package metrics provides Prometheus metrics for the intake pipeline and review queue.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector the service exports. A nil *Metrics is valid
// and records nothing, so components can be built without a registry.
type Metrics struct {
	intakeTotal        *prometheus.CounterVec
	validationTotal    *prometheus.CounterVec
	validationFallback *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	reviewOps          *prometheus.CounterVec
	reviewDrift        prometheus.Counter

	// collectors is a slice of all collectors for easier iteration
	collectors []prometheus.Collector
}

// New creates and registers the metrics on registry.
func New(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.intakeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rxintake_intake_total",
			Help: "Intake requests by outcome (downstream, review, failed)",
		},
		[]string{"outcome"},
	)
	m.validationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rxintake_validation_total",
			Help: "Validations by the strategy that produced the result",
		},
		[]string{"strategy"},
	)
	m.validationFallback = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rxintake_validation_fallback_total",
			Help: "Times the external validation engine failed and the fallback ran",
		},
		[]string{"reason"},
	)
	m.validationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rxintake_validation_duration_seconds",
			Help:    "Time spent per validation strategy",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		[]string{"strategy"},
	)
	m.reviewOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rxintake_review_operations_total",
			Help: "Review queue operations by result",
		},
		[]string{"operation", "status"},
	)
	m.reviewDrift = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rxintake_review_pending_drift_total",
			Help: "Pending ids found without a stored payload",
		},
	)

	m.collectors = []prometheus.Collector{
		m.intakeTotal,
		m.validationTotal,
		m.validationFallback,
		m.validationDuration,
		m.reviewOps,
		m.reviewDrift,
	}
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordIntake counts a finished intake request.
func (m *Metrics) RecordIntake(outcome string) {
	if m == nil {
		return
	}
	m.intakeTotal.WithLabelValues(outcome).Inc()
}

// RecordValidation counts a validation and its latency.
func (m *Metrics) RecordValidation(strategy string, d time.Duration) {
	if m == nil {
		return
	}
	m.validationTotal.WithLabelValues(strategy).Inc()
	m.validationDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// RecordFallback counts an external engine failure by reason.
func (m *Metrics) RecordFallback(reason string) {
	if m == nil {
		return
	}
	m.validationFallback.WithLabelValues(reason).Inc()
}

// RecordReviewOp counts a review queue operation (enqueue, list, approve).
func (m *Metrics) RecordReviewOp(operation, status string) {
	if m == nil {
		return
	}
	m.reviewOps.WithLabelValues(operation, status).Inc()
}

// RecordPendingDrift counts a pending id whose payload is missing.
func (m *Metrics) RecordPendingDrift() {
	if m == nil {
		return
	}
	m.reviewDrift.Inc()
}
