package vision

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCollector captures metric calls for assertions.
type recordingCollector struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string][]float64
	labels     map[string]map[string]string
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		counters:   make(map[string]float64),
		histograms: make(map[string][]float64),
		labels:     make(map[string]map[string]string),
	}
}

func (r *recordingCollector) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
}

func (r *recordingCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[metric] += value
	r.labels[metric] = labels
}

func (r *recordingCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms[metric] = append(r.histograms[metric], value)
	r.labels[metric] = labels
}

// TestMetricsMiddleware_RecordsSuccess tests that a successful call
// emits a latency sample and a success-labeled counter.
func TestMetricsMiddleware_RecordsSuccess(t *testing.T) {
	mock := NewMockCoreVLM()
	collector := newRecordingCollector()
	wrapped := MetricsMiddleware("lmstudio", collector)(mock)

	_, err := wrapped.DoRequest(context.Background(), "img", "prompt", nil)

	require.NoError(t, err)
	assert.Equal(t, 1.0, collector.counters["vlm_requests_total"])
	assert.Len(t, collector.histograms["vlm_latency_seconds"], 1)
	assert.Equal(t, "success", collector.labels["vlm_requests_total"]["status"])
	assert.Equal(t, "lmstudio", collector.labels["vlm_requests_total"]["backend"])
	assert.Equal(t, "test-model", collector.labels["vlm_requests_total"]["model"])
}

// TestMetricsMiddleware_RecordsError tests the error status label.
func TestMetricsMiddleware_RecordsError(t *testing.T) {
	mock := NewMockCoreVLM()
	mock.Error = errors.New("boom")
	collector := newRecordingCollector()
	wrapped := MetricsMiddleware("lmstudio", collector)(mock)

	_, err := wrapped.DoRequest(context.Background(), "img", "prompt", nil)

	require.Error(t, err)
	assert.Equal(t, "error", collector.labels["vlm_requests_total"]["status"])
}

// TestMetricsMiddleware_RecordsTimeout tests that deadline expiry is
// labeled as a timeout rather than a generic error.
func TestMetricsMiddleware_RecordsTimeout(t *testing.T) {
	mock := NewMockCoreVLM()
	mock.ResponseDelay = 100 * time.Millisecond
	collector := newRecordingCollector()
	wrapped := MetricsMiddleware("lmstudio", collector)(TimeoutMiddleware(20 * time.Millisecond)(mock))

	_, err := wrapped.DoRequest(context.Background(), "img", "prompt", nil)

	require.Error(t, err)
	assert.Equal(t, "timeout", collector.labels["vlm_requests_total"]["status"])
}
