// Package generator wraps chat-completion providers behind a single
// Generate(ctx, prompt) call.
package generator

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/perbu/pdfqa/pkg/config"
	"github.com/perbu/pdfqa/pkg/pdfqa"
)

// Generator answers a fully assembled prompt
type Generator interface {
	pdfqa.Generator
	ModelInfo() string
}

// New creates the generator selected by cfg.Generation.Provider
func New(ctx context.Context, cfg *config.Config, logger arbor.ILogger) (Generator, error) {
	if logger == nil {
		logger = arbor.NewLogger()
	}

	var (
		gen Generator
		err error
	)

	switch cfg.Generation.Provider {
	case "openai":
		gen, err = NewOpenAIGenerator(OpenAIOptions{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.ChatModel,
			Temperature: cfg.Generation.Temperature,
			MaxTokens:   cfg.Generation.MaxTokens,
			Logger:      logger,
		})
	case "anthropic":
		gen, err = NewAnthropicGenerator(AnthropicOptions{
			APIKey:      cfg.Anthropic.APIKey,
			Model:       cfg.Anthropic.Model,
			Temperature: cfg.Generation.Temperature,
			MaxTokens:   cfg.Generation.MaxTokens,
			Logger:      logger,
		})
	case "gemini":
		gen, err = NewGeminiGenerator(ctx, GeminiOptions{
			APIKey:      cfg.Gemini.APIKey,
			BaseURL:     cfg.Gemini.BaseURL,
			Model:       cfg.Gemini.ChatModel,
			Temperature: cfg.Generation.Temperature,
			MaxTokens:   cfg.Generation.MaxTokens,
			Logger:      logger,
		})
	default:
		return nil, &config.ConfigurationError{
			Field:   "generation.provider",
			Message: fmt.Sprintf("unknown generation provider %q", cfg.Generation.Provider),
		}
	}
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("model", gen.ModelInfo()).Msg("Generator initialized")
	return gen, nil
}
