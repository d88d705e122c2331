package embedder

import (
	"context"
	"errors"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

// OpenAIOptions configures an OpenAIEmbedder
type OpenAIOptions struct {
	APIKey            string
	BaseURL           string // Optional, for OpenAI-compatible endpoints
	Model             string
	RequestsPerSecond float64 // 0 disables client-side rate limiting
	Logger            arbor.ILogger
}

// OpenAIEmbedder uses OpenAI API for embeddings
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	dim     int
	limiter *rate.Limiter
	logger  arbor.ILogger
}

// NewOpenAIEmbedder creates an OpenAI embedder. The API key is passed in
// explicitly; it is never read from the environment here.
func NewOpenAIEmbedder(opts OpenAIOptions) (*OpenAIEmbedder, error) {
	if opts.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if opts.Model == "" {
		opts.Model = string(openai.SmallEmbedding3)
	}
	if opts.Logger == nil {
		opts.Logger = arbor.NewLogger()
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	// Set dimension based on model
	dim := 1536 // default for text-embedding-3-small
	if opts.Model == string(openai.LargeEmbedding3) {
		dim = 3072
	}

	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(cfg),
		model:   opts.Model,
		dim:     dim,
		limiter: newLimiter(opts.RequestsPerSecond),
		logger:  opts.Logger,
	}, nil
}

// Embed generates an embedding for a single text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds all texts with a single API request. The result keeps
// the order of texts.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("cannot embed empty text (index %d)", i)
		}
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("OpenAI returned %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || embeddings[d.Index] != nil {
			return nil, fmt.Errorf("OpenAI returned an unexpected embedding index %d", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i := range d.Embedding {
			v[i] = float32(d.Embedding[i])
		}
		// L2 normalize (important for cosine similarity)
		l2normalize(v)
		embeddings[d.Index] = v
	}

	e.logger.Debug().
		Int("texts", len(texts)).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Msg("OpenAI embeddings created")

	return embeddings, nil
}

// Dimension returns the embedding dimension
func (e *OpenAIEmbedder) Dimension() int {
	return e.dim
}

// ModelInfo returns model information
func (e *OpenAIEmbedder) ModelInfo() string {
	return "openai-" + e.model
}

func newLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	burst := int(math.Ceil(requestsPerSecond))
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}
