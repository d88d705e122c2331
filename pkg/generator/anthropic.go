package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
)

// AnthropicOptions configures an AnthropicGenerator
type AnthropicOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Logger      arbor.ILogger
}

// AnthropicGenerator answers prompts with the Claude messages API
type AnthropicGenerator struct {
	client      anthropic.Client
	model       string
	temperature float32
	maxTokens   int
	logger      arbor.ILogger
}

// NewAnthropicGenerator creates a Claude generator
func NewAnthropicGenerator(opts AnthropicOptions) (*AnthropicGenerator, error) {
	if opts.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	if opts.Model == "" {
		opts.Model = "claude-sonnet-4-20250514"
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if opts.Logger == nil {
		opts.Logger = arbor.NewLogger()
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &AnthropicGenerator{
		client:      anthropic.NewClient(clientOpts...),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		logger:      opts.Logger,
	}, nil
}

// Generate sends prompt as a single user message
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(g.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(float64(g.temperature)),
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}
	if response.Len() == 0 {
		return "", errors.New("no response generated from Claude API")
	}

	g.logger.Debug().
		Str("model", g.model).
		Int64("input_tokens", resp.Usage.InputTokens).
		Int64("output_tokens", resp.Usage.OutputTokens).
		Msg("Claude message created")

	return response.String(), nil
}

// ModelInfo returns model information
func (g *AnthropicGenerator) ModelInfo() string {
	return "anthropic-" + g.model
}
