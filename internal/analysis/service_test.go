package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codexvision/focusd/internal/domain"
	"github.com/codexvision/focusd/internal/ports"
)

// fakeVisionClient is a configurable ports.VisionClient for service
// tests.
type fakeVisionClient struct {
	mu sync.Mutex

	text    string
	err     error
	delay   time.Duration
	elapsed time.Duration

	calls      int
	lastPrompt string
	lastOpts   map[string]any
}

func (f *fakeVisionClient) Describe(ctx context.Context, image, prompt string, options map[string]any) (ports.Reply, error) {
	f.mu.Lock()
	f.calls++
	f.lastPrompt = prompt
	f.lastOpts = options
	delay, text, err, elapsed := f.delay, f.text, f.err, f.elapsed
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ports.Reply{}, ctx.Err()
		}
	}
	if err != nil {
		return ports.Reply{}, err
	}
	return ports.Reply{Text: text, Elapsed: elapsed}, nil
}

func (f *fakeVisionClient) GetModel() string { return "test-model" }

func (f *fakeVisionClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestService(client ports.VisionClient, cfg ServiceConfig) *Service {
	return NewService(client, NewGate(), newTestNormalizer(), nil, cfg)
}

// TestService_AnalyzeFreshVerdict tests the happy path: one frame in,
// one fresh normalized verdict out with elapsed time attached.
func TestService_AnalyzeFreshVerdict(t *testing.T) {
	client := &fakeVisionClient{text: "DISTRACTED: phone", elapsed: 1234 * time.Millisecond}
	service := newTestService(client, ServiceConfig{Mode: ModeClassify, MaxTokens: 48})

	verdict := service.Analyze(context.Background(), "base64-frame")

	assert.Equal(t, domain.LabelDistracted, verdict.Label)
	assert.Equal(t, domain.ReasonPhone, verdict.Reason)
	assert.False(t, verdict.Stale)
	require.NotNil(t, verdict.Elapsed)
	assert.InDelta(t, 1.23, *verdict.Elapsed, 0.001, "elapsed should round to two decimals")
	assert.Equal(t, 1, client.callCount())
}

// TestService_BackendFailureBecomesErrorVerdict tests that a backend
// error is returned as data, cached, and does not wedge the gate.
func TestService_BackendFailureBecomesErrorVerdict(t *testing.T) {
	client := &fakeVisionClient{err: errors.New("connection refused")}
	service := newTestService(client, ServiceConfig{Mode: ModeClassify, MaxTokens: 48})

	verdict := service.Analyze(context.Background(), "frame")

	assert.Equal(t, domain.LabelError, verdict.Label)
	assert.Equal(t, domain.ReasonError, verdict.Reason)
	assert.Contains(t, verdict.Detail, "connection refused")
	require.NotNil(t, verdict.Elapsed)
	assert.Zero(t, *verdict.Elapsed)

	// The gate must be free again after the failure.
	client.mu.Lock()
	client.err = nil
	client.text = "FOCUSED: focused"
	client.mu.Unlock()

	verdict = service.Analyze(context.Background(), "frame")
	assert.Equal(t, domain.LabelFocused, verdict.Label)
}

// TestService_ConcurrentRequestsServeStale tests that while one
// inference is in flight, concurrent callers get the previous verdict
// marked stale and only one backend call happens.
func TestService_ConcurrentRequestsServeStale(t *testing.T) {
	client := &fakeVisionClient{text: "FOCUSED: focused"}
	service := newTestService(client, ServiceConfig{Mode: ModeClassify, MaxTokens: 48})

	// Seed the cache.
	first := service.Analyze(context.Background(), "frame")
	require.Equal(t, domain.LabelFocused, first.Label)

	client.mu.Lock()
	client.delay = 200 * time.Millisecond
	client.mu.Unlock()

	slowDone := make(chan domain.Verdict, 1)
	go func() {
		slowDone <- service.Analyze(context.Background(), "frame")
	}()

	// Wait for the slow call to take the gate.
	require.Eventually(t, func() bool {
		return client.callCount() == 2
	}, time.Second, 5*time.Millisecond)

	stale := service.Analyze(context.Background(), "frame")
	assert.True(t, stale.Stale, "contended request should serve the cached verdict stale")
	assert.Equal(t, domain.LabelFocused, stale.Label)
	assert.Equal(t, 2, client.callCount(), "contended request must not reach the backend")

	fresh := <-slowDone
	assert.False(t, fresh.Stale)
}

// TestService_BusyWithoutPriorVerdict tests the cold-start contention
// case: no cached verdict yet yields the BUSY placeholder.
func TestService_BusyWithoutPriorVerdict(t *testing.T) {
	client := &fakeVisionClient{text: "FOCUSED: focused", delay: 200 * time.Millisecond}
	service := newTestService(client, ServiceConfig{Mode: ModeClassify, MaxTokens: 48})

	go service.Analyze(context.Background(), "frame")
	require.Eventually(t, func() bool {
		return client.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	busy := service.Analyze(context.Background(), "frame")
	assert.Equal(t, domain.LabelBusy, busy.Label)
	assert.Nil(t, busy.Elapsed)
}

// TestService_ModeSelectsPromptAndOptions tests that the mode decides
// which prompt and request options reach the backend.
func TestService_ModeSelectsPromptAndOptions(t *testing.T) {
	client := &fakeVisionClient{text: `{"person_present": true, "looking_at_camera": true, "phone_visible": false}`}
	service := newTestService(client, ServiceConfig{
		Mode:         ModeSignals,
		MaxTokens:    48,
		UseSchema:    true,
		SchemaOption: "response_schema",
	})

	verdict := service.Analyze(context.Background(), "frame")

	assert.Equal(t, domain.LabelFocused, verdict.Label)
	assert.Equal(t, SignalsPrompt, client.lastPrompt)
	assert.JSONEq(t, SignalsSchema, string(client.lastOpts["response_schema"].(json.RawMessage)))
	assert.Equal(t, SignalsSystemPrompt, client.lastOpts["system"])
}

// TestService_DescribeMode tests that describe mode wraps free text in
// a SEEING verdict.
func TestService_DescribeMode(t *testing.T) {
	client := &fakeVisionClient{text: "A tidy desk with a sleeping cat."}
	service := newTestService(client, ServiceConfig{Mode: ModeDescribe, MaxTokens: 64})

	verdict := service.Analyze(context.Background(), "frame")

	assert.Equal(t, domain.LabelSeeing, verdict.Label)
	assert.Equal(t, "A tidy desk with a sleeping cat.", verdict.Detail)
	assert.Equal(t, DescribePrompt, client.lastPrompt)
}
