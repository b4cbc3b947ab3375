package vision

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Option keys understood by the OpenAI-compatible providers beyond the
// standard set.
const (
	// OptStream requests token streaming; chunks are concatenated
	// before the reply is returned.
	OptStream = "stream"

	// OptResponseSchema carries a json.RawMessage JSON schema enforced
	// through the structured-output response format.
	OptResponseSchema = "response_schema"

	// OptSchemaName names the schema in the response format envelope.
	OptSchemaName = "schema_name"
)

// Default endpoints for the OpenAI-compatible backend family. All of
// them speak the same chat-completions protocol; they differ only in
// where they live and whether they check credentials.
const (
	togetherDefaultBaseURL = "https://api.together.xyz/v1"
	lmstudioDefaultBaseURL = "http://localhost:1234/v1"
	llamacppDefaultBaseURL = "http://127.0.0.1:8080/v1"
)

func init() {
	RegisterProviderFactory("openai", func(c ClientConfig) (CoreVLM, error) {
		return newOpenAICompatProvider("openai", "", true, c)
	})
	RegisterProviderFactory("together", func(c ClientConfig) (CoreVLM, error) {
		return newOpenAICompatProvider("together", togetherDefaultBaseURL, true, c)
	})
	RegisterProviderFactory("lmstudio", func(c ClientConfig) (CoreVLM, error) {
		return newOpenAICompatProvider("lmstudio", lmstudioDefaultBaseURL, false, c)
	})
	RegisterProviderFactory("llamacpp", func(c ClientConfig) (CoreVLM, error) {
		return newOpenAICompatProvider("llamacpp", llamacppDefaultBaseURL, false, c)
	})
}

// openAICompatProvider implements CoreVLM for any backend speaking the
// OpenAI chat-completions protocol: the hosted APIs as well as LM
// Studio and llama-server. Hosted variants additionally support strict
// JSON-schema response formats and streaming.
type openAICompatProvider struct {
	name            string
	model           string
	client          *openai.Client
	errorClassifier *ErrorClassifier
}

func newOpenAICompatProvider(name, defaultBaseURL string, requiresKey bool, config ClientConfig) (CoreVLM, error) {
	if requiresKey && config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	// llama-server runs whatever model it was started with and ignores
	// the request model field, so an empty model is only valid there.
	if config.Model == "" && name != "llamacpp" {
		return nil, ErrEmptyModel
	}

	clientConfig := openai.DefaultConfig(config.APIKey)

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if baseURL != "" {
		validatedURL, err := ValidateBaseURL(baseURL)
		if err != nil {
			return nil, err
		}
		clientConfig.BaseURL = validatedURL
	}

	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: ValidateTimeout(config.Timeout)}
	}

	return &openAICompatProvider{
		name:            name,
		model:           config.Model,
		client:          openai.NewClientWithConfig(clientConfig),
		errorClassifier: &ErrorClassifier{Provider: name},
	}, nil
}

// DoRequest sends the image and prompt as a multi-part user message,
// optionally constrained by a JSON schema, and returns the reply text.
func (p *openAICompatProvider) DoRequest(ctx context.Context, image, prompt string, opts map[string]any) (string, error) {
	options := ParseRequestOptions(opts, p.model)
	req := p.buildRequest(image, prompt, options)

	if ExtractOptionalBool(opts, OptStream, false) {
		return p.doStream(ctx, req)
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", p.handleError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoResponseChoice
	}
	return resp.Choices[0].Message.Content, nil
}

// doStream consumes a streaming completion and concatenates the delta
// chunks into a single reply.
func (p *openAICompatProvider) doStream(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	req.Stream = true
	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", p.handleError(err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", p.handleError(err)
		}
		if len(chunk.Choices) > 0 {
			sb.WriteString(chunk.Choices[0].Delta.Content)
		}
	}
	return sb.String(), nil
}

func (p *openAICompatProvider) buildRequest(image, prompt string, options RequestOptions) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if options.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: options.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: image},
			},
		},
	})

	req := openai.ChatCompletionRequest{
		Model:    options.Model,
		Messages: messages,
	}
	if options.MaxTokens > 0 {
		req.MaxTokens = options.MaxTokens
	}
	if options.Temperature != nil {
		temp := ClampFloat64(*options.Temperature, MinTemperature, MaxTemperature)
		req.Temperature = float32(temp)
	}

	if schema, ok := options.Extra[OptResponseSchema].(json.RawMessage); ok {
		name := "response"
		if n, ok := options.Extra[OptSchemaName].(string); ok && n != "" {
			name = n
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: schema,
				Strict: true,
			},
		}
	}

	return req
}

// handleError classifies API failures, distinguishing context errors,
// HTTP-level API errors, and transport failures.
func (p *openAICompatProvider) handleError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "unknown error"
		}
		return p.errorClassifier.ClassifyHTTPError(apiErr.HTTPStatusCode, message, err)
	}
	return p.errorClassifier.ClassifyTransportError(err)
}

// GetModel returns the configured model name.
func (p *openAICompatProvider) GetModel() string { return p.model }
