package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// cacheEntry is the value stored per cached text
type cacheEntry struct {
	Model  string
	Vector []float32
}

// CachedEmbedder keeps embeddings in a badgerhold store so repeated runs
// over the same document only embed new text. Keys include the model
// info, so switching models never returns stale vectors.
type CachedEmbedder struct {
	inner  Embedder
	store  *badgerhold.Store
	logger arbor.ILogger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedEmbedder opens (or creates) the cache at dir
func NewCachedEmbedder(inner Embedder, dir string, logger arbor.ILogger) (*CachedEmbedder, error) {
	if logger == nil {
		logger = arbor.NewLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache at %s: %w", dir, err)
	}

	logger.Debug().Str("path", dir).Str("model", inner.ModelInfo()).Msg("Embedding cache opened")

	return &CachedEmbedder{inner: inner, store: store, logger: logger}, nil
}

// Embed returns the cached vector for text, embedding it on a miss
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch serves what it can from the cache and sends the misses to the
// wrapped embedder in one batch
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		var entry cacheEntry
		err := c.store.Get(c.key(t), &entry)
		switch {
		case err == nil && len(entry.Vector) > 0:
			out[i] = entry.Vector
			continue
		case err != nil && !errors.Is(err, badgerhold.ErrNotFound):
			c.logger.Warn().Err(err).Msg("Embedding cache read failed")
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	c.hits.Add(int64(len(texts) - len(missTexts)))
	c.misses.Add(int64(len(missTexts)))

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missTexts))
	}

	model := c.inner.ModelInfo()
	for j, idx := range missIdx {
		out[idx] = vecs[j]
		if err := c.store.Upsert(c.key(missTexts[j]), cacheEntry{Model: model, Vector: vecs[j]}); err != nil {
			c.logger.Warn().Err(err).Msg("Embedding cache write failed")
		}
	}

	return out, nil
}

// Dimension returns the wrapped embedder's dimension
func (c *CachedEmbedder) Dimension() int {
	return c.inner.Dimension()
}

// ModelInfo returns the wrapped embedder's model info, so indexes built
// through the cache stay compatible with uncached ones
func (c *CachedEmbedder) ModelInfo() string {
	return c.inner.ModelInfo()
}

// Stats returns cache hits and misses since the cache was opened
func (c *CachedEmbedder) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close closes the underlying store
func (c *CachedEmbedder) Close() error {
	hits, misses := c.Stats()
	c.logger.Debug().Int64("hits", hits).Int64("misses", misses).Msg("Closing embedding cache")
	return c.store.Close()
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(c.inner.ModelInfo() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
