// Package ports defines the interfaces between the analysis core and
// the infrastructure it depends on: vision backends and metrics.
package ports

import (
	"context"
	"time"
)

// Reply is the raw outcome of one backend call.
type Reply struct {
	// Text is the model output, with streamed chunks already
	// concatenated by the gateway.
	Text string

	// Elapsed is the wall-clock duration of the call.
	Elapsed time.Duration
}

// VisionClient is the inference gateway: it turns an image plus a
// prompt into raw model text. Implementations handle provider-specific
// authentication, request formatting, and response parsing; the backend
// is fixed at construction time and never multiplexed per request.
type VisionClient interface {
	// Describe sends one image and prompt to the backend.
	// The image is a data URL (or bare base64 JPEG); options carry
	// provider-specific settings such as "max_tokens", "temperature",
	// "system", "response_schema", or "stream".
	// It must not mutate any shared state beyond the network call.
	Describe(ctx context.Context, image, prompt string, options map[string]any) (Reply, error)

	// GetModel returns the model identifier in use, for /config and logs.
	GetModel() string
}

// MetricsCollector abstracts the metrics backend so the analysis core
// and the vision middleware do not depend on Prometheus directly.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
