// Package config loads the process configuration from the environment,
// optionally seeded from a .env file, and validates it once at startup.
// Configuration is immutable afterward.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/codexvision/focusd/internal/domain"
)

// Config holds all settings for the focus detection server.
type Config struct {
	// Server configuration
	Host string `validate:"required"`
	Port int    `validate:"gte=1,lte=65535"`

	// Backend selection, fixed for the process lifetime.
	Backend string `validate:"oneof=openai together lmstudio llamacpp ollama anthropic google"`
	Model   string
	APIKey  string
	BaseURL string `validate:"omitempty,url"`
	Timeout time.Duration

	// Analysis configuration
	Mode        string  `validate:"oneof=classify signals state describe"`
	MaxTokens   int     `validate:"gt=0"`
	Temperature float64 `validate:"gte=0,lte=2"`
	Stream      bool
	UseSchema   bool

	// VocabularyFile optionally points at a YAML file overlaying the
	// default reason vocabulary.
	VocabularyFile string

	// Rate limiting for hosted backends, requests per second. Zero
	// disables the limiter.
	RateLimit float64
	RateBurst int

	// Local llama-server supervision
	LlamaAutostart    bool
	LlamaBin          string
	LlamaModelPath    string
	LlamaMMProjPath   string
	LlamaArgs         []string
	LlamaStartTimeout time.Duration

	// Logging
	LogLevel string
}

// Load reads the environment (after an optional .env file) and
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	backend := getEnv("BACKEND", "llamacpp")

	cfg := &Config{
		Host: getEnv("HOST", "0.0.0.0"),
		Port: getIntEnv("PORT", 8000),

		Backend: backend,
		Model:   getEnv("MODEL", ""),
		APIKey:  apiKeyFor(backend),
		BaseURL: getEnv("BASE_URL", ""),
		Timeout: getDurationEnv("BACKEND_TIMEOUT", defaultTimeout(backend)),

		Mode:        getEnv("MODE", "classify"),
		MaxTokens:   getIntEnv("MAX_TOKENS", 48),
		Temperature: getFloatEnv("TEMPERATURE", 0),
		Stream:      getBoolEnv("STREAM", false),
		UseSchema:   getBoolEnv("USE_SCHEMA", defaultUseSchema(backend)),

		VocabularyFile: getEnv("VOCABULARY_FILE", ""),

		RateLimit: getFloatEnv("RATE_LIMIT", 0),
		RateBurst: getIntEnv("RATE_BURST", 1),

		LlamaAutostart:    getBoolEnv("LLAMACPP_AUTOSTART", backend == "llamacpp"),
		LlamaBin:          getEnv("LLAMACPP_BIN", "llama-server"),
		LlamaModelPath:    getEnv("LLAMACPP_MODEL_PATH", ""),
		LlamaMMProjPath:   getEnv("LLAMACPP_MMPROJ_PATH", ""),
		LlamaArgs:         splitArgs(getEnv("LLAMACPP_ARGS", "")),
		LlamaStartTimeout: getDurationEnv("LLAMACPP_START_TIMEOUT", 120*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Vocabulary returns the default reason vocabulary, overlaid with the
// deployment's vocabulary file when one is configured.
func (c *Config) Vocabulary() (domain.Vocabulary, error) {
	vocab := domain.DefaultVocabulary()
	if c.VocabularyFile == "" {
		return vocab, nil
	}

	data, err := os.ReadFile(c.VocabularyFile)
	if err != nil {
		return vocab, fmt.Errorf("read vocabulary file: %w", err)
	}

	var overlay domain.Vocabulary
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return vocab, fmt.Errorf("parse vocabulary file: %w", err)
	}
	return vocab.Merge(overlay), nil
}

// apiKeyFor resolves the provider-specific key variable, falling back
// to the generic API_KEY.
func apiKeyFor(backend string) string {
	keys := map[string]string{
		"openai":    "OPENAI_API_KEY",
		"together":  "TOGETHER_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"google":    "GEMINI_API_KEY",
	}
	if name, ok := keys[backend]; ok {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return os.Getenv("API_KEY")
}

// defaultTimeout is shorter for hosted APIs than for local inference,
// where a cold model load can take minutes.
func defaultTimeout(backend string) time.Duration {
	switch backend {
	case "openai", "together", "anthropic", "google":
		return 60 * time.Second
	}
	return 120 * time.Second
}

// defaultUseSchema enables constrained decoding on the backends known
// to support it.
func defaultUseSchema(backend string) bool {
	switch backend {
	case "openai", "together", "ollama":
		return true
	}
	return false
}

func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Fields(s)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnv gets a float environment variable or returns a default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv gets a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
