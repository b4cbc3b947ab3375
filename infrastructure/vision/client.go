// Package vision provides a unified gateway to vision-language model
// backends with built-in support for timeouts, metrics, tracing, and
// request pacing.
//
// The package abstracts several backend variants (hosted OpenAI-compatible
// APIs, a local LM Studio or llama.cpp chat-completions server, Ollama,
// Anthropic, Gemini) behind a common interface while adding cross-cutting
// concerns through a middleware pattern. The backend is a static
// configuration choice made once at process start.
//
// Basic usage:
//
//	client, err := vision.NewClient("lmstudio", vision.ClientConfig{
//	    BaseURL: "http://localhost:1234/v1",
//	    Model:   "google/gemma-3n-e4b",
//	})
//	reply, err := client.Describe(ctx, dataURL, prompt, nil)
package vision

import (
	"context"
	"fmt"
	"time"

	"github.com/codexvision/focusd/internal/ports"
)

// CoreVLM is the minimal interface a backend must implement: produce
// text given an image and a prompt. The middleware system wraps any
// conforming implementation.
type CoreVLM interface {
	// DoRequest sends one image and prompt to the backend and returns
	// the raw response text. The image is a data URL; bare base64 is
	// normalized by the caller. Streamed responses are concatenated
	// before returning.
	DoRequest(ctx context.Context, image, prompt string, opts map[string]any) (string, error)

	// GetModel returns the currently configured model name.
	GetModel() string
}

// Middleware wraps a CoreVLM to add cross-cutting functionality such as
// timeouts, metrics, or tracing without touching provider logic.
type Middleware func(CoreVLM) CoreVLM

// ClientConfig holds all configuration for creating a vision client.
type ClientConfig struct {
	// APIKey authenticates requests to hosted providers. Local
	// backends (lmstudio, llamacpp, ollama) may leave it empty.
	APIKey string

	// Model is the model identifier to request. llamacpp servers run a
	// single model and may leave it empty.
	Model string

	// BaseURL overrides the backend endpoint. Required for the local
	// OpenAI-compatible backends, optional for hosted ones.
	BaseURL string

	// Timeout bounds individual requests at the transport level.
	// Zero means the provider default.
	Timeout time.Duration

	// Middleware is applied in the order given, first entry outermost.
	Middleware []Middleware
}

// Client implements ports.VisionClient around a middleware-wrapped
// CoreVLM, measuring elapsed wall-clock time per call.
type Client struct {
	backend string
	core    CoreVLM
}

var _ ports.VisionClient = (*Client)(nil)

// NewClient creates a vision client for the named backend. The factory
// validates backend-specific requirements (for example, hosted backends
// need an API key) and assembles the middleware chain.
func NewClient(backend string, config ClientConfig) (*Client, error) {
	factory, ok := providerFactories[backend]
	if !ok {
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", backend, err)
	}

	// Apply middleware in reverse so the first entry is outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{backend: backend, core: core}, nil
}

// Describe sends one image and prompt to the backend and returns the
// reply with its elapsed duration. Failures are wrapped with backend
// and model context; the caller turns them into ERROR verdicts.
func (c *Client) Describe(ctx context.Context, image, prompt string, options map[string]any) (ports.Reply, error) {
	start := time.Now()
	text, err := c.core.DoRequest(ctx, NormalizeDataURL(image), prompt, options)
	if err != nil {
		return ports.Reply{}, ports.NewBackendError(c.backend, c.core.GetModel(), err)
	}
	return ports.Reply{Text: text, Elapsed: time.Since(start)}, nil
}

// GetModel returns the model name from the underlying backend.
func (c *Client) GetModel() string { return c.core.GetModel() }

// ProviderFactory creates a CoreVLM from configuration.
type ProviderFactory func(ClientConfig) (CoreVLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a backend factory under a name.
// Provider files register themselves at init time.
func RegisterProviderFactory(backend string, factory ProviderFactory) {
	providerFactories[backend] = factory
}

// Backends returns the names of all registered backends.
func Backends() []string {
	names := make([]string, 0, len(providerFactories))
	for name := range providerFactories {
		names = append(names, name)
	}
	return names
}
