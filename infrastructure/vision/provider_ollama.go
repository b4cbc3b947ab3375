package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Ollama provider constants.
const (
	ollamaDefaultBaseURL = "http://localhost:11434"
	ollamaDefaultTimeout = 120 * time.Second

	// OptFormat carries a json.RawMessage JSON schema for Ollama's
	// structured "format" field.
	OptFormat = "format"
)

func init() {
	RegisterProviderFactory("ollama", newOllamaProvider)
}

// ollamaProvider implements CoreVLM for Ollama's native chat API.
// Ollama takes bare base64 images alongside the prompt and supports a
// response schema through the "format" field. No SDK is involved; the
// API is a single JSON POST.
type ollamaProvider struct {
	baseURL         string
	model           string
	httpClient      *http.Client
	errorClassifier *ErrorClassifier
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   json.RawMessage `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error,omitempty"`
}

func newOllamaProvider(config ClientConfig) (CoreVLM, error) {
	if config.Model == "" {
		return nil, ErrEmptyModel
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}
	validatedURL, err := ValidateBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	timeout := ValidateTimeout(config.Timeout)
	if timeout == 0 {
		timeout = ollamaDefaultTimeout
	}

	return &ollamaProvider{
		baseURL:         validatedURL,
		model:           config.Model,
		httpClient:      &http.Client{Timeout: timeout},
		errorClassifier: &ErrorClassifier{Provider: "ollama"},
	}, nil
}

// DoRequest posts a single chat turn with the base64 image attached and
// returns the reply content.
func (p *ollamaProvider) DoRequest(ctx context.Context, image, prompt string, opts map[string]any) (string, error) {
	options := ParseRequestOptions(opts, p.model)

	data, _, err := DecodeDataURL(image)
	if err != nil {
		return "", err
	}

	req := ollamaChatRequest{
		Model: options.Model,
		Messages: []ollamaMessage{{
			Role:    "user",
			Content: prompt,
			Images:  []string{bytesToBase64(data)},
		}},
		Stream: false,
	}
	if schema, ok := options.Extra[OptFormat].(json.RawMessage); ok {
		req.Format = schema
	}

	req.Options = map[string]any{}
	if options.MaxTokens > 0 {
		req.Options["num_predict"] = options.MaxTokens
	}
	if options.Temperature != nil {
		req.Options["temperature"] = *options.Temperature
	}

	var resp ollamaChatResponse
	if err := p.postJSON(ctx, p.baseURL+"/api/chat", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", NewProviderError("ollama", ErrorTypeServerError, 0, resp.Error, nil)
	}
	if resp.Message.Content == "" {
		return "", ErrNoResponseChoice
	}
	return resp.Message.Content, nil
}

func (p *ollamaProvider) postJSON(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return p.errorClassifier.ClassifyTransportError(err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return p.errorClassifier.ClassifyTransportError(err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return p.errorClassifier.ClassifyHTTPError(httpResp.StatusCode, string(respBody), nil)
	}
	return json.Unmarshal(respBody, out)
}

// GetModel returns the configured model name.
func (p *ollamaProvider) GetModel() string { return p.model }
