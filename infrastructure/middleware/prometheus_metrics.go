// Package middleware provides cross-cutting concerns for the
// verification pipeline.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/truthstream/verity/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of stage execution,
// verdict outcomes, proof quality, and trust scores.
type PrometheusMetrics struct {
	stageLatency    *prometheus.HistogramVec
	providerLatency *prometheus.HistogramVec
	runsTotal       *prometheus.CounterVec
	providerFetches *prometheus.CounterVec
	proofConfidence *prometheus.HistogramVec
	trustScore      *prometheus.GaugeVec
	operationGauges *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance registered
// in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWith(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsWith registers the pipeline metrics in the given
// registerer; tests pass their own registry to avoid global collisions.
func NewPrometheusMetricsWith(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		stageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "verification_stage_duration_seconds",
				Help:    "Execution time of verification stages.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage", "status"},
		),
		providerLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "provider_fetch_duration_seconds",
				Help:    "Latency of evidence provider fetches.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_runs_total",
				Help: "Total number of verification runs by outcome.",
			},
			[]string{"verified"},
		),
		providerFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_fetches_total",
				Help: "Total number of evidence provider fetches by outcome.",
			},
			[]string{"kind", "status"},
		),
		proofConfidence: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "proof_confidence",
				Help:    "Confidence distribution of generated proofs.",
				Buckets: []float64{0.5, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0},
			},
			[]string{"kind"},
		),
		trustScore: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "user_trust_score",
				Help: "Latest computed trust score per user.",
			},
			[]string{"user"},
		),
		operationGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "verification_system_state",
				Help: "Current system state values for the verification pipeline.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in the matching histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	switch operation {
	case "verification_stage":
		pm.stageLatency.WithLabelValues(labels["stage"], labels["status"]).
			Observe(duration.Seconds())
	case "provider_fetch":
		pm.providerLatency.WithLabelValues(labels["kind"]).Observe(duration.Seconds())
	}
}

// RecordCounter implements the MetricsCollector interface by
// incrementing the matching counter.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "verification_runs_total":
		pm.runsTotal.WithLabelValues(labels["verified"]).Add(value)
	case "provider_fetches_total":
		pm.providerFetches.WithLabelValues(labels["kind"], labels["status"]).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	switch metric {
	case "user_trust_score":
		pm.trustScore.WithLabelValues(labels["user"]).Set(value)
	default:
		pm.operationGauges.WithLabelValues(metric).Set(value)
	}
}

// RecordHistogram implements the MetricsCollector interface.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	if metric == "proof_confidence" {
		pm.proofConfidence.WithLabelValues(labels["kind"]).Observe(value)
	}
}
