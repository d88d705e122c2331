package embedder

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiOptions configures a GeminiEmbedder
type GeminiOptions struct {
	APIKey            string
	BaseURL           string // Overrides the API endpoint, empty uses the default
	Model             string
	Dimension         int // Requested output dimensionality, 0 keeps the model default
	RequestsPerSecond float64
	Logger            arbor.ILogger
}

// GeminiEmbedder uses the Gemini API for embeddings
type GeminiEmbedder struct {
	client  *genai.Client
	model   string
	dim     int
	limiter *rate.Limiter
	logger  arbor.ILogger
}

// NewGeminiEmbedder creates a Gemini embedder
func NewGeminiEmbedder(ctx context.Context, opts GeminiOptions) (*GeminiEmbedder, error) {
	if opts.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if opts.Model == "" {
		opts.Model = "gemini-embedding-001"
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

	return &GeminiEmbedder{
		client:  client,
		model:   opts.Model,
		dim:     opts.Dimension,
		limiter: newLimiter(opts.RequestsPerSecond),
		logger:  opts.Logger,
	}, nil
}

// Embed generates an embedding for a single text
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts with one EmbedContent call, preserving order
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	cfg := &genai.EmbedContentConfig{}
	if e.dim > 0 {
		outputDim := int32(e.dim)
		cfg.OutputDimensionality = &outputDim
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, fmt.Errorf("Gemini returned %d embeddings for %d texts", got, len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned for text %d", i)
		}
		v := append([]float32(nil), emb.Values...)
		l2normalize(v)
		embeddings[i] = v
	}

	e.logger.Debug().Int("texts", len(texts)).Str("model", e.model).Msg("Gemini embeddings created")

	return embeddings, nil
}

// Dimension returns the requested dimension, or 3072 (the
// gemini-embedding-001 default) when none was requested
func (e *GeminiEmbedder) Dimension() int {
	if e.dim > 0 {
		return e.dim
	}
	return 3072
}

// ModelInfo returns model information
func (e *GeminiEmbedder) ModelInfo() string {
	return fmt.Sprintf("gemini-%s-%d", e.model, e.Dimension())
}
