package embedder

import (
	"context"
	"fmt"

	"github.com/perbu/pdfqa/pkg/config"
	"github.com/ternarybob/arbor"
)

// New creates the embedder selected by cfg.Embedding.Provider. When a cache
// path is configured the embedder is wrapped in a CachedEmbedder; callers
// should close the result if it implements io.Closer.
func New(ctx context.Context, cfg *config.Config, logger arbor.ILogger) (Embedder, error) {
	var (
		emb Embedder
		err error
	)

	switch cfg.Embedding.Provider {
	case "openai":
		emb, err = NewOpenAIEmbedder(OpenAIOptions{
			APIKey:            cfg.OpenAI.APIKey,
			BaseURL:           cfg.OpenAI.BaseURL,
			Model:             cfg.OpenAI.EmbeddingModel,
			RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
			Logger:            logger,
		})
	case "gemini":
		emb, err = NewGeminiEmbedder(ctx, GeminiOptions{
			APIKey:            cfg.Gemini.APIKey,
			BaseURL:           cfg.Gemini.BaseURL,
			Model:             cfg.Gemini.EmbeddingModel,
			Dimension:         cfg.Gemini.Dimension,
			RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
			Logger:            logger,
		})
	case "hash":
		emb = NewHashEmbedder(cfg.Embedding.HashDimension)
	default:
		return nil, &config.ConfigurationError{
			Field:   "embedding.provider",
			Message: fmt.Sprintf("unknown embedding provider %q", cfg.Embedding.Provider),
		}
	}
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Path == "" {
		return emb, nil
	}
	return NewCachedEmbedder(emb, cfg.Cache.Path, logger)
}
