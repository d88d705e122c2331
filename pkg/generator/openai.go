package generator

import (
	"context"
	"errors"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"
)

// OpenAIOptions configures an OpenAIGenerator
type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Logger      arbor.ILogger
}

// OpenAIGenerator answers prompts with the chat completions API
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      arbor.ILogger
}

// NewOpenAIGenerator creates a chat completion generator
func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if opts.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.Logger == nil {
		opts.Logger = arbor.NewLogger()
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		logger:      opts.Logger,
	}, nil
}

// Generate sends prompt as a single user message
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	// A zero temperature is dropped by omitempty and the API would use its default
	temperature := g.temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in OpenAI response")
	}

	g.logger.Debug().
		Str("model", g.model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("OpenAI chat completion")

	return resp.Choices[0].Message.Content, nil
}

// ModelInfo returns model information
func (g *OpenAIGenerator) ModelInfo() string {
	return "openai-" + g.model
}
