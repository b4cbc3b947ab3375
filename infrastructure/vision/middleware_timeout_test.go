package vision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTimeoutMiddleware_SucceedsWithinTimeout tests that a request
// completing before the deadline passes through untouched.
func TestTimeoutMiddleware_SucceedsWithinTimeout(t *testing.T) {
	mock := NewMockCoreVLM()
	mock.ResponseDelay = 10 * time.Millisecond
	wrapped := TimeoutMiddleware(100 * time.Millisecond)(mock)

	response, err := wrapped.DoRequest(context.Background(), "img", "prompt", nil)

	require.NoError(t, err)
	assert.Equal(t, "FOCUSED: focused", response)
	assert.Equal(t, 1, mock.GetCallCount())
}

// TestTimeoutMiddleware_FailsWhenExceedingTimeout tests that a slow
// backend call is cut off at the configured deadline.
func TestTimeoutMiddleware_FailsWhenExceedingTimeout(t *testing.T) {
	mock := NewMockCoreVLM()
	mock.ResponseDelay = 200 * time.Millisecond
	wrapped := TimeoutMiddleware(50 * time.Millisecond)(mock)

	start := time.Now()
	_, err := wrapped.DoRequest(context.Background(), "img", "prompt", nil)
	duration := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "error should be deadline exceeded: %v", err)
	assert.Less(t, duration, 150*time.Millisecond, "should not wait for the full backend delay")
}

// TestTimeoutMiddleware_RespectsExistingContextDeadline tests that a
// shorter deadline already on the context wins.
func TestTimeoutMiddleware_RespectsExistingContextDeadline(t *testing.T) {
	mock := NewMockCoreVLM()
	mock.ResponseDelay = 200 * time.Millisecond
	wrapped := TimeoutMiddleware(300 * time.Millisecond)(mock)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := wrapped.DoRequest(ctx, "img", "prompt", nil)
	duration := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, duration, 150*time.Millisecond)
}
