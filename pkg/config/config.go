package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config is the application configuration. Values are layered:
// defaults, then an optional TOML file, then environment variables.
type Config struct {
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Generation GenerationConfig `toml:"generation"`
	OpenAI     OpenAIConfig     `toml:"openai"`
	Anthropic  AnthropicConfig  `toml:"anthropic"`
	Gemini     GeminiConfig     `toml:"gemini"`
	Chunking   ChunkingConfig   `toml:"chunking"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Cache      CacheConfig      `toml:"cache"`
	Logging    LoggingConfig    `toml:"logging"`
	Timeouts   TimeoutConfig    `toml:"timeouts"`
}

type EmbeddingConfig struct {
	Provider          string  `toml:"provider" validate:"oneof=openai gemini hash"` // "hash" is the offline embedder
	BatchSize         int     `toml:"batch_size" validate:"gt=0"`                   // Texts per embedding request
	Concurrency       int     `toml:"concurrency" validate:"gt=0"`                  // Parallel embedding requests during index build
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`         // 0 disables rate limiting
	HashDimension     int     `toml:"hash_dimension" validate:"gt=0"`               // Dimension of the hash embedder
}

type GenerationConfig struct {
	Provider    string  `toml:"provider" validate:"oneof=openai anthropic gemini"`
	Temperature float32 `toml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `toml:"max_tokens" validate:"gt=0"`
}

type OpenAIConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url" validate:"omitempty,url"`
	EmbeddingModel string `toml:"embedding_model" validate:"required"`
	ChatModel      string `toml:"chat_model" validate:"required"`
}

type AnthropicConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model" validate:"required"`
}

type GeminiConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url" validate:"omitempty,url"`
	EmbeddingModel string `toml:"embedding_model" validate:"required"`
	ChatModel      string `toml:"chat_model" validate:"required"`
	Dimension      int    `toml:"dimension" validate:"gte=0"` // 0 keeps the model default
}

type ChunkingConfig struct {
	MaxSize int `toml:"max_size" validate:"gt=0"`                    // Characters per chunk
	Overlap int `toml:"overlap" validate:"gte=0,ltfield=MaxSize"` // Characters shared by consecutive chunks
}

type RetrievalConfig struct {
	TopK            int `toml:"top_k" validate:"gte=1"`
	MaxContextChars int `toml:"max_context_chars" validate:"gte=0"` // Prompt context bound, 0 disables it
	PreviewChars    int `toml:"preview_chars" validate:"gte=0"`
}

type CacheConfig struct {
	Path string `toml:"path"` // Embedding cache directory, empty disables the cache
}

type LoggingConfig struct {
	Level string `toml:"level" validate:"oneof=trace debug info warn error"`
}

type TimeoutConfig struct {
	Request string `toml:"request"` // e.g. "30s", applied to each provider call
}

// ConfigurationError reports invalid or missing configuration, most
// notably missing provider credentials.
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewDefaultConfig returns the defaults of the original pipeline:
// 1000/200 character chunks, three retrieved chunks, OpenAI for both stages.
func NewDefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:      "openai",
			BatchSize:     64,
			Concurrency:   4,
			HashDimension: 256,
		},
		Generation: GenerationConfig{
			Provider:    "openai",
			Temperature: 0,
			MaxTokens:   1024,
		},
		OpenAI: OpenAIConfig{
			EmbeddingModel: "text-embedding-3-small",
			ChatModel:      "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-20250514",
		},
		Gemini: GeminiConfig{
			EmbeddingModel: "gemini-embedding-001",
			ChatModel:      "gemini-2.0-flash",
		},
		Chunking: ChunkingConfig{
			MaxSize: 1000,
			Overlap: 200,
		},
		Retrieval: RetrievalConfig{
			TopK:            3,
			MaxContextChars: 8000,
			PreviewChars:    200,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Timeouts: TimeoutConfig{
			Request: "30s",
		},
	}
}

// Load builds a configuration from defaults, the TOML file at path (skipped
// when path is empty) and the process environment, then validates it.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ConfigurationError{Field: "config", Message: "cannot read config file", Err: err}
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, &ConfigurationError{Field: "config", Message: "cannot parse " + path, Err: err}
		}
	}

	if err := applyEnvOverrides(cfg, getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	if key := getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if url := getenv("OPENAI_BASE_URL"); url != "" {
		cfg.OpenAI.BaseURL = url
	}
	if key := getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.Anthropic.APIKey = key
	}
	if key := getenv("GEMINI_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	} else if key := getenv("GOOGLE_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	}

	if v := getenv("PDFQA_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = strings.ToLower(v)
	}
	if v := getenv("PDFQA_GENERATION_PROVIDER"); v != "" {
		cfg.Generation.Provider = strings.ToLower(v)
	}
	if v := getenv("PDFQA_OPENAI_EMBEDDING_MODEL"); v != "" {
		cfg.OpenAI.EmbeddingModel = v
	}
	if v := getenv("PDFQA_OPENAI_CHAT_MODEL"); v != "" {
		cfg.OpenAI.ChatModel = v
	}
	if v := getenv("PDFQA_ANTHROPIC_MODEL"); v != "" {
		cfg.Anthropic.Model = v
	}
	if v := getenv("PDFQA_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := getenv("PDFQA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := getenv("PDFQA_TIMEOUT"); v != "" {
		cfg.Timeouts.Request = v
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"PDFQA_CHUNK_SIZE", &cfg.Chunking.MaxSize},
		{"PDFQA_CHUNK_OVERLAP", &cfg.Chunking.Overlap},
		{"PDFQA_TOP_K", &cfg.Retrieval.TopK},
		{"PDFQA_MAX_CONTEXT_CHARS", &cfg.Retrieval.MaxContextChars},
		{"PDFQA_EMBEDDING_BATCH_SIZE", &cfg.Embedding.BatchSize},
		{"PDFQA_EMBEDDING_CONCURRENCY", &cfg.Embedding.Concurrency},
	}
	for _, o := range ints {
		v := getenv(o.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigurationError{Field: o.env, Message: "must be an integer", Err: err}
		}
		*o.dst = n
	}

	return nil
}

// Validate checks field constraints and that the selected providers have
// credentials. It must pass before any provider client is created.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ConfigurationError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed %q constraint (value %v)", fe.Tag(), fe.Value()),
			}
		}
		return &ConfigurationError{Message: "invalid configuration", Err: err}
	}

	if c.Retrieval.MaxContextChars > 0 && c.Retrieval.MaxContextChars < c.Chunking.MaxSize {
		return &ConfigurationError{
			Field:   "retrieval.max_context_chars",
			Message: fmt.Sprintf("must be 0 or at least chunking.max_size (%d)", c.Chunking.MaxSize),
		}
	}

	timeout, err := time.ParseDuration(c.Timeouts.Request)
	if err != nil {
		return &ConfigurationError{Field: "timeouts.request", Message: "invalid duration", Err: err}
	}
	if timeout < 0 {
		return &ConfigurationError{Field: "timeouts.request", Message: "must not be negative"}
	}

	switch c.Embedding.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return missingKey("openai.api_key", "OPENAI_API_KEY")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return missingKey("gemini.api_key", "GEMINI_API_KEY")
		}
	}

	switch c.Generation.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return missingKey("openai.api_key", "OPENAI_API_KEY")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return missingKey("anthropic.api_key", "ANTHROPIC_API_KEY")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return missingKey("gemini.api_key", "GEMINI_API_KEY")
		}
	}

	return nil
}

// RequestTimeout returns the parsed per-call timeout. Validate guarantees
// the value parses.
func (c *Config) RequestTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Timeouts.Request)
	return d
}

func missingKey(field, env string) error {
	return &ConfigurationError{
		Field:   field,
		Message: "API key is not set (set " + env + " in the environment or a .env file)",
	}
}
