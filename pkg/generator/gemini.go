package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

// GeminiOptions configures a GeminiGenerator
type GeminiOptions struct {
	APIKey      string
	BaseURL     string // Overrides the API endpoint, empty uses the default
	Model       string
	Temperature float32
	MaxTokens   int
	Logger      arbor.ILogger
}

// GeminiGenerator answers prompts with the Gemini API
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      arbor.ILogger
}

// NewGeminiGenerator creates a Gemini generator
func NewGeminiGenerator(ctx context.Context, opts GeminiOptions) (*GeminiGenerator, error) {
	if opts.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}
	if opts.Logger == nil {
		opts.Logger = arbor.NewLogger()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	return &GeminiGenerator{
		client:      client,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		logger:      opts.Logger,
	}, nil
}

// Generate sends prompt as a single user turn
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if g.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.maxTokens)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("empty response from Gemini API")
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("empty text in Gemini response")
	}

	g.logger.Debug().Str("model", g.model).Int("answer_length", len(text)).Msg("Gemini content generated")

	return text, nil
}

// ModelInfo returns model information
func (g *GeminiGenerator) ModelInfo() string {
	return "gemini-" + g.model
}
