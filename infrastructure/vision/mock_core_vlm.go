package vision

import (
	"context"
	"sync"
	"time"
)

// MockCoreVLM is a configurable CoreVLM for testing middleware and the
// analysis service without a real backend.
type MockCoreVLM struct {
	mu sync.Mutex

	// Response configuration.
	Response      string
	Error         error
	Model         string
	ResponseDelay time.Duration

	// Tracking.
	CallCount  int
	LastImage  string
	LastPrompt string
	LastOpts   map[string]any
}

// NewMockCoreVLM creates a mock with default successful behavior.
func NewMockCoreVLM() *MockCoreVLM {
	return &MockCoreVLM{
		Response: "FOCUSED: focused",
		Model:    "test-model",
	}
}

// DoRequest implements CoreVLM with configurable behavior. It honors
// context cancellation during the configured response delay.
func (m *MockCoreVLM) DoRequest(ctx context.Context, image, prompt string, opts map[string]any) (string, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastImage = image
	m.LastPrompt = prompt
	m.LastOpts = opts
	delay := m.ResponseDelay
	response, err := m.Response, m.Error
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return response, nil
}

// GetModel returns the configured model name.
func (m *MockCoreVLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Model
}

// GetCallCount returns how many times DoRequest was invoked.
func (m *MockCoreVLM) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}
