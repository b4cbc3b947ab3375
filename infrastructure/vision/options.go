package vision

// options.go provides extraction and validation utilities for the
// generic option maps passed to providers.

import (
	"fmt"
	"net/url"
	"time"
)

// Parameter bounds shared by all providers.
const (
	// DefaultMaxTokens bounds the reply length when the caller does
	// not specify one. Classification replies are a single line.
	DefaultMaxTokens = 48

	// MinTemperature is the minimum allowed sampling temperature.
	MinTemperature = 0.0
	// MaxTemperature is the maximum allowed sampling temperature.
	MaxTemperature = 2.0

	// MinTimeout is the shortest accepted request timeout.
	MinTimeout = 1 * time.Second
	// MaxTimeout is the longest accepted request timeout.
	MaxTimeout = 10 * time.Minute
)

// RequestOptions is the standardized parameter set extracted from an
// option map. Provider-specific extras stay in Extra.
type RequestOptions struct {
	// MaxTokens limits the generated reply length.
	MaxTokens int
	// Model overrides the configured model for this request.
	Model string
	// Temperature controls sampling randomness; nil means provider default.
	Temperature *float64
	// System is the system prompt, when the provider supports one.
	System string
	// Extra holds provider-specific options such as "response_schema".
	Extra map[string]any
}

// ParseRequestOptions extracts standardized parameters from opts,
// falling back to defaults for missing or invalid entries.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: ExtractOptionalInt(opts, "max_tokens", DefaultMaxTokens, IsPositiveInt),
		Model:     ExtractOptionalString(opts, "model", defaultModel, IsNonEmptyString),
		System:    ExtractOptionalString(opts, "system", "", nil),
		Extra:     make(map[string]any),
	}

	if temp := ExtractOptionalFloat64(opts, "temperature", -1, IsValidTemperature); temp != -1 {
		options.Temperature = &temp
	}

	for k, v := range opts {
		switch k {
		case "max_tokens", "model", "system", "temperature":
			// Standard options handled above.
		default:
			options.Extra[k] = v
		}
	}

	return options
}

// ExtractOptionalInt extracts an int from opts with validation.
// Returns defaultVal when the key is missing, wrongly typed, or invalid.
func ExtractOptionalInt(opts map[string]any, key string, defaultVal int, validator func(int) bool) int {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	intVal, ok := val.(int)
	if !ok {
		return defaultVal
	}
	if validator != nil && !validator(intVal) {
		return defaultVal
	}
	return intVal
}

// ExtractOptionalString extracts a string from opts with validation.
func ExtractOptionalString(opts map[string]any, key string, defaultVal string, validator func(string) bool) string {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	strVal, ok := val.(string)
	if !ok {
		return defaultVal
	}
	if validator != nil && !validator(strVal) {
		return defaultVal
	}
	return strVal
}

// ExtractOptionalFloat64 extracts a float64 from opts with validation.
func ExtractOptionalFloat64(opts map[string]any, key string, defaultVal float64, validator func(float64) bool) float64 {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	floatVal, ok := val.(float64)
	if !ok {
		return defaultVal
	}
	if validator != nil && !validator(floatVal) {
		return defaultVal
	}
	return floatVal
}

// ExtractOptionalBool extracts a bool from opts.
func ExtractOptionalBool(opts map[string]any, key string, defaultVal bool) bool {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	boolVal, ok := val.(bool)
	if !ok {
		return defaultVal
	}
	return boolVal
}

// IsValidTemperature checks the range [0.0, 2.0].
func IsValidTemperature(val float64) bool {
	return val >= MinTemperature && val <= MaxTemperature
}

// IsPositiveInt checks the value is positive.
func IsPositiveInt(val int) bool { return val > 0 }

// IsNonEmptyString checks the string is non-empty.
func IsNonEmptyString(val string) bool { return val != "" }

// ValidateBaseURL validates and normalizes a base URL string. An empty
// string is valid and selects the provider default.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got: %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}
	return parsedURL.String(), nil
}

// ValidateTimeout clamps a timeout to [MinTimeout, MaxTimeout].
// Zero or negative means the provider default.
func ValidateTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	if timeout < MinTimeout {
		return MinTimeout
	}
	if timeout > MaxTimeout {
		return MaxTimeout
	}
	return timeout
}

// ClampFloat64 clamps val to [min, max].
func ClampFloat64(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
