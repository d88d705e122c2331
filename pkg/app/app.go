// Package app holds the setup shared by the pdfqa commands: configuration
// layering, document loading and the user-facing error hints.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/ternarybob/arbor"

	"github.com/perbu/pdfqa/pkg/config"
	"github.com/perbu/pdfqa/pkg/loader"
	"github.com/perbu/pdfqa/pkg/logging"
	"github.com/perbu/pdfqa/pkg/pdfqa"
)

// Setup loads .env (if present), the optional TOML file and the
// environment, and returns the validated config with a logger at the
// configured level. verbose forces debug logging.
func Setup(configPath string, verbose bool) (*config.Config, arbor.ILogger, error) {
	// Load .env file if it exists (for API keys)
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return cfg, logging.New(level), nil
}

// LoadChunks loads the PDF at path and splits it with the configured
// chunking parameters
func LoadChunks(ctx context.Context, cfg *config.Config, logger arbor.ILogger, path string) (pdfqa.Document, []pdfqa.Chunk, error) {
	doc, err := loader.NewPDFLoader(logger).Load(ctx, path)
	if err != nil {
		return pdfqa.Document{}, nil, err
	}

	chunks, err := loader.Split(doc, cfg.Chunking.MaxSize, cfg.Chunking.Overlap)
	if err != nil {
		return pdfqa.Document{}, nil, &config.ConfigurationError{Field: "chunking", Err: err}
	}

	logger.Info().
		Str("path", path).
		Int("pages", len(doc.Pages)).
		Int("chunks", len(chunks)).
		Msg("Document split into chunks")

	return doc, chunks, nil
}

// BuildOptions maps the configuration onto index build options
func BuildOptions(cfg *config.Config, logger arbor.ILogger, modelInfo string) pdfqa.BuildOptions {
	return pdfqa.BuildOptions{
		BatchSize:   cfg.Embedding.BatchSize,
		Concurrency: cfg.Embedding.Concurrency,
		Timeout:     cfg.RequestTimeout(),
		ModelInfo:   modelInfo,
		Logger:      logger,
	}
}

// SessionOptions maps the configuration onto session options. A
// max_context_chars of 0 disables the context bound.
func SessionOptions(cfg *config.Config, logger arbor.ILogger) pdfqa.SessionOptions {
	bound := cfg.Retrieval.MaxContextChars
	if bound == 0 {
		bound = -1
	}
	return pdfqa.SessionOptions{
		K:               cfg.Retrieval.TopK,
		MaxContextRunes: bound,
		Timeout:         cfg.RequestTimeout(),
		Logger:          logger,
	}
}

// CheckSnapshot rejects a snapshot built with a different embedder or
// different chunking parameters than cfg selects
func CheckSnapshot(s *pdfqa.Snapshot, cfg *config.Config, modelInfo string) error {
	if s.ModelInfo != modelInfo {
		return fmt.Errorf("index was built with %q, current embedder is %q", s.ModelInfo, modelInfo)
	}
	if s.ChunkSize != cfg.Chunking.MaxSize || s.Overlap != cfg.Chunking.Overlap {
		return fmt.Errorf("index was built with chunks of %d/%d, current configuration uses %d/%d",
			s.ChunkSize, s.Overlap, cfg.Chunking.MaxSize, cfg.Chunking.Overlap)
	}
	return nil
}

// Hint returns a remediation hint for err, or "" when there is none
func Hint(err error) string {
	var (
		cfgErr  *config.ConfigurationError
		loadErr *loader.DocumentLoadError
		embErr  *pdfqa.EmbeddingError
		genErr  *pdfqa.GenerationError
	)

	switch {
	case errors.As(err, &cfgErr):
		return "check your .env file or config file; set OPENAI_API_KEY (or the key of the selected provider)"
	case errors.As(err, &loadErr):
		return "check that the path points to a readable PDF with extractable text"
	case errors.Is(err, context.DeadlineExceeded):
		return "the provider did not answer in time; try again or raise timeouts.request"
	case errors.As(err, &embErr):
		return "could not reach the embedding provider; check your network connection and API key"
	case errors.As(err, &genErr):
		return "the answer provider failed; check the model name, your quota and network connection"
	case errors.Is(err, pdfqa.ErrInvalidQuestion):
		return "please enter a question"
	}
	return ""
}
