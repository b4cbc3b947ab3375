// Package metrics provides the Prometheus implementation of the
// MetricsCollector port.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/codexvision/focusd/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks backend call latency and the admission outcome
// of every analysis request (fresh, stale, busy, error).
type PrometheusMetrics struct {
	vlmLatency       *prometheus.HistogramVec
	vlmRequests      *prometheus.CounterVec
	analysisOutcomes *prometheus.CounterVec
	analysisLatency  *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and
// registers all metrics in the default registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		vlmLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vlm_latency_seconds",
				Help:    "Wall-clock duration of vision backend calls.",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"backend", "model", "status"},
		),
		vlmRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vlm_requests_total",
				Help: "Total vision backend calls by outcome.",
			},
			[]string{"backend", "model", "status"},
		),
		analysisOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analysis_requests_total",
				Help: "Analysis requests by admission outcome.",
			},
			[]string{"outcome"},
		),
		analysisLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analysis_duration_seconds",
				Help:    "End-to-end duration of analysis operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordLatency records the execution time of an analysis operation.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.analysisLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter increments the counter named by metric.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "vlm_requests_total":
		pm.vlmRequests.WithLabelValues(
			labels["backend"], labels["model"], labels["status"],
		).Add(value)
	case "analysis_requests_total":
		pm.analysisOutcomes.WithLabelValues(labels["outcome"]).Add(value)
	}
}

// RecordHistogram records a value in the histogram named by metric.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	if metric == "vlm_latency_seconds" {
		pm.vlmLatency.WithLabelValues(
			labels["backend"], labels["model"], labels["status"],
		).Observe(value)
	}
}
