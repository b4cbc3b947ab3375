package vision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codexvision/focusd/internal/ports"
)

// TestNewClient_UnknownBackend tests that an unregistered backend name
// is rejected.
func TestNewClient_UnknownBackend(t *testing.T) {
	_, err := NewClient("carrier-pigeon", ClientConfig{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

// TestNewClient_RegisteredBackends tests that every shipped provider is
// registered at init time.
func TestNewClient_RegisteredBackends(t *testing.T) {
	backends := Backends()

	for _, name := range []string{"openai", "together", "lmstudio", "llamacpp", "ollama", "anthropic", "google"} {
		assert.Contains(t, backends, name)
	}
}

// TestClient_DescribeMeasuresElapsed tests that Describe returns the
// backend text with a measured duration and normalizes bare base64 to
// a data URL.
func TestClient_DescribeMeasuresElapsed(t *testing.T) {
	mock := NewMockCoreVLM()
	client := &Client{backend: "mock", core: mock}

	reply, err := client.Describe(context.Background(), "aGVsbG8=", "prompt", nil)

	require.NoError(t, err)
	assert.Equal(t, "FOCUSED: focused", reply.Text)
	assert.GreaterOrEqual(t, reply.Elapsed.Nanoseconds(), int64(0))
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", mock.LastImage,
		"bare base64 should be normalized to a data URL before the provider sees it")
}

// TestClient_DescribeWrapsErrors tests that provider failures come back
// as BackendError with backend and model context attached.
func TestClient_DescribeWrapsErrors(t *testing.T) {
	mock := NewMockCoreVLM()
	mock.Error = errors.New("boom")
	client := &Client{backend: "mock", core: mock}

	_, err := client.Describe(context.Background(), "img", "prompt", nil)

	require.Error(t, err)
	var backendErr *ports.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "mock", backendErr.Backend)
	assert.Equal(t, "test-model", backendErr.Model)
}

// TestNewClient_MiddlewareOrder tests that middleware wraps in the
// declared order, first entry outermost.
func TestNewClient_MiddlewareOrder(t *testing.T) {
	mock := NewMockCoreVLM()
	RegisterProviderFactory("order-test", func(ClientConfig) (CoreVLM, error) {
		return mock, nil
	})

	var order []string
	tag := func(name string) Middleware {
		return func(next CoreVLM) CoreVLM {
			return &taggedVLM{next: next, name: name, order: &order}
		}
	}

	client, err := NewClient("order-test", ClientConfig{
		Middleware: []Middleware{tag("outer"), tag("inner")},
	})
	require.NoError(t, err)

	_, err = client.Describe(context.Background(), "img", "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type taggedVLM struct {
	next  CoreVLM
	name  string
	order *[]string
}

func (t *taggedVLM) DoRequest(ctx context.Context, image, prompt string, opts map[string]any) (string, error) {
	*t.order = append(*t.order, t.name)
	return t.next.DoRequest(ctx, image, prompt, opts)
}

func (t *taggedVLM) GetModel() string { return t.next.GetModel() }
