package pdfqa

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// Embedder maps text to fixed-dimension vectors
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex holds the in-memory vector index for similarity search.
// It is read-only once built and safe for concurrent queries.
type VectorIndex struct {
	entries   []IndexEntry // Insertion (chunk) order
	dimension int
	modelInfo string
}

// BuildOptions controls how Build calls the embedder
type BuildOptions struct {
	BatchSize   int           // Texts per EmbedBatch call (default 64)
	Concurrency int           // Batches embedded in parallel (default 4)
	Timeout     time.Duration // Per-call timeout, 0 disables it
	ModelInfo   string        // Recorded in snapshots
	Progress    func(done, total int)
	Logger      arbor.ILogger
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = 64
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.Logger == nil {
		o.Logger = arbor.NewLogger()
	}
	return o
}

// CosineSimilarity computes the cosine similarity between two vectors
// Returns a value between -1 and 1, where 1 means identical direction.
// Vectors of different length or with zero norm score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// Build embeds every chunk and returns a ready index. Either all chunks are
// embedded and indexed, or an error is returned and no index is produced.
func Build(ctx context.Context, chunks []Chunk, emb Embedder, opts BuildOptions) (*VectorIndex, error) {
	opts = opts.withDefaults()
	logger := opts.Logger

	if len(chunks) == 0 {
		logger.Warn().Msg("Building index from zero chunks")
		return &VectorIndex{modelInfo: opts.ModelInfo}, nil
	}

	type batch struct{ start, end int }
	var batches []batch
	for start := 0; start < len(chunks); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(chunks))
		batches = append(batches, batch{start: start, end: end})
	}

	logger.Debug().
		Int("chunks", len(chunks)).
		Int("batches", len(batches)).
		Int("concurrency", opts.Concurrency).
		Msg("Embedding chunks")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	begin := time.Now()
	vectors := make([][]float32, len(chunks))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		done     int
	)
	sem := make(chan struct{}, opts.Concurrency) // Limit concurrent API calls

	for _, b := range batches {
		wg.Add(1)
		sem <- struct{}{}
		go func(b batch) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = &EmbeddingError{Op: "build", Err: err}
				}
				mu.Unlock()
				return
			}

			texts := make([]string, 0, b.end-b.start)
			for _, c := range chunks[b.start:b.end] {
				texts = append(texts, c.Text)
			}

			vecs, err := callWithTimeout(ctx, opts.Timeout, func(ctx context.Context) ([][]float32, error) {
				return emb.EmbedBatch(ctx, texts)
			})
			if err == nil && len(vecs) != len(texts) {
				err = fmt.Errorf("expected %d vectors, got %d", len(texts), len(vecs))
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = &EmbeddingError{Op: "build", Err: err}
					cancel()
				}
				return
			}
			copy(vectors[b.start:b.end], vecs)
			done += len(vecs)
			if opts.Progress != nil {
				opts.Progress(done, len(chunks))
			}
		}(b)
	}
	wg.Wait()

	if firstErr != nil {
		logger.Error().Err(firstErr).Msg("Index build failed")
		return nil, firstErr
	}

	dim := len(vectors[0])
	entries := make([]IndexEntry, len(chunks))
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, &EmbeddingError{Op: "build", Err: fmt.Errorf("empty vector for chunk %d", i)}
		}
		if len(v) != dim {
			return nil, &EmbeddingError{
				Op:  "build",
				Err: fmt.Errorf("%w: chunk %d has %d, expected %d", ErrDimensionMismatch, i, len(v), dim),
			}
		}
		entries[i] = IndexEntry{
			Chunk:  chunks[i],
			Vector: append([]float32(nil), v...),
		}
	}

	logger.Info().
		Int("chunks", len(entries)).
		Int("dimension", dim).
		Dur("duration", time.Since(begin)).
		Msg("Vector index built")

	return &VectorIndex{
		entries:   entries,
		dimension: dim,
		modelInfo: opts.ModelInfo,
	}, nil
}

// Query returns the k entries most similar to vector by cosine similarity,
// highest first. Equal scores keep insertion order.
func (idx *VectorIndex) Query(vector []float32, k int) (RetrievalResult, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	if len(idx.entries) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(vector) != idx.dimension {
		return nil, &EmbeddingError{
			Op:  "query",
			Err: fmt.Errorf("%w: index has %d, query has %d", ErrDimensionMismatch, idx.dimension, len(vector)),
		}
	}

	results := make(RetrievalResult, len(idx.entries))
	for i, e := range idx.entries {
		results[i] = SearchResult{
			Chunk: e.Chunk,
			Score: CosineSimilarity(vector, e.Vector),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of indexed chunks
func (idx *VectorIndex) Len() int {
	return len(idx.entries)
}

// Dimension returns the embedding vector dimension, 0 for an empty index
func (idx *VectorIndex) Dimension() int {
	return idx.dimension
}

// ModelInfo returns the embedder description recorded at build time
func (idx *VectorIndex) ModelInfo() string {
	return idx.modelInfo
}
