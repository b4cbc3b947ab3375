package vision

import (
	"context"
	"time"
)

// timeoutVLM enforces a per-request deadline so a slow backend cannot
// hold the inference gate indefinitely.
type timeoutVLM struct {
	next    CoreVLM
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that bounds each backend call
// with a context deadline. A shorter deadline already present on the
// context takes precedence.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next CoreVLM) CoreVLM {
		return &timeoutVLM{next: next, timeout: timeout}
	}
}

// DoRequest executes the request with a timeout context.
func (t *timeoutVLM) DoRequest(ctx context.Context, image, prompt string, opts map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.DoRequest(ctx, image, prompt, opts)
}

// GetModel returns the model name from the wrapped implementation.
func (t *timeoutVLM) GetModel() string { return t.next.GetModel() }
