package pdfqa

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
)

// RetrieverOptions configures a Retriever
type RetrieverOptions struct {
	Timeout time.Duration // Applied to the query embedding call, 0 disables it
	Logger  arbor.ILogger
}

// Retriever embeds questions and looks them up in a VectorIndex. It is the
// only place where query-time embedding happens.
type Retriever struct {
	index    *VectorIndex
	embedder Embedder
	timeout  time.Duration
	logger   arbor.ILogger
}

// NewRetriever creates a retriever over a built index
func NewRetriever(index *VectorIndex, embedder Embedder, opts RetrieverOptions) *Retriever {
	logger := opts.Logger
	if logger == nil {
		logger = arbor.NewLogger()
	}
	return &Retriever{
		index:    index,
		embedder: embedder,
		timeout:  opts.Timeout,
		logger:   logger,
	}
}

// Retrieve returns the top-k chunks for question. Embedder failures are
// reported as *EmbeddingError; ErrEmptyIndex is passed through unchanged.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) (RetrievalResult, error) {
	start := time.Now()
	vector, err := callWithTimeout(ctx, r.timeout, func(ctx context.Context) ([]float32, error) {
		return r.embedder.Embed(ctx, question)
	})
	if err != nil {
		return nil, &EmbeddingError{Op: "query", Err: err}
	}

	results, err := r.index.Query(vector, k)
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Int("k", k).
		Int("results", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Retrieved chunks")

	return results, nil
}

// Index returns the underlying index
func (r *Retriever) Index() *VectorIndex {
	return r.index
}
