package vision

import (
	"context"
	"errors"
	"time"

	"github.com/codexvision/focusd/internal/ports"
)

// metricsVLM records latency and outcome for every backend call.
type metricsVLM struct {
	next      CoreVLM
	backend   string
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that reports request metrics
// through the given collector.
func MetricsMiddleware(backend string, collector ports.MetricsCollector) Middleware {
	return func(next CoreVLM) CoreVLM {
		return &metricsVLM{next: next, backend: backend, collector: collector}
	}
}

// DoRequest executes the request while recording latency and status.
func (m *metricsVLM) DoRequest(ctx context.Context, image, prompt string, opts map[string]any) (string, error) {
	start := time.Now()
	response, err := m.next.DoRequest(ctx, image, prompt, opts)

	labels := map[string]string{
		"backend": m.backend,
		"model":   m.next.GetModel(),
		"status":  "success",
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ports.ErrBackendTimeout) {
			labels["status"] = "timeout"
		} else {
			labels["status"] = "error"
		}
	}

	if m.collector != nil {
		m.collector.RecordHistogram("vlm_latency_seconds", time.Since(start).Seconds(), labels)
		m.collector.RecordCounter("vlm_requests_total", 1, labels)
	}

	return response, err
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsVLM) GetModel() string { return m.next.GetModel() }
