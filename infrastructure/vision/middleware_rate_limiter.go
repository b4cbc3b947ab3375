package vision

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// rateLimitedVLM paces backend calls with a token bucket. The
// single-flight gate already serializes inference; this additionally
// caps sustained request rate against hosted provider limits.
type rateLimitedVLM struct {
	next    CoreVLM
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware enforcing a sustained request
// rate with the given burst allowance.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)
	return func(next CoreVLM) CoreVLM {
		return &rateLimitedVLM{next: next, limiter: limiter}
	}
}

// DoRequest waits for rate limit permission before forwarding.
func (r *rateLimitedVLM) DoRequest(ctx context.Context, image, prompt string, opts map[string]any) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return r.next.DoRequest(ctx, image, prompt, opts)
}

// GetModel returns the model name from the wrapped implementation.
func (r *rateLimitedVLM) GetModel() string { return r.next.GetModel() }
