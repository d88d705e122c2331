package pdfqa

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestQuery_OrderAndTies(t *testing.T) {
	idx := indexOf(
		[]string{"a", "b", "c", "d"},
		[][]float32{{1, 0}, {0, 1}, {1, 0}, {0.6, 0.8}},
	)

	results, err := idx.Query([]float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a", results[0].Chunk.Text)
	assert.Equal(t, "c", results[1].Chunk.Text)
	assert.Equal(t, "d", results[2].Chunk.Text)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.InDelta(t, 0.6, results[2].Score, 1e-6)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestQuery_KLargerThanIndex(t *testing.T) {
	idx := indexOf([]string{"a", "b"}, [][]float32{{1, 0}, {0, 1}})

	results, err := idx.Query([]float32{0, 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].Chunk.Text)
}

func TestQuery_Errors(t *testing.T) {
	idx := indexOf([]string{"a"}, [][]float32{{1, 0}})

	_, err := idx.Query([]float32{1, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = idx.Query([]float32{1, 0, 0}, 1)
	var embErr *EmbeddingError
	assert.ErrorAs(t, err, &embErr)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	empty := &VectorIndex{}
	_, err = empty.Query([]float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrEmptyIndex)

	_, err = empty.Query([]float32{1, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestBuild_PreservesOrderAcrossBatches(t *testing.T) {
	texts := make([]string, 7)
	vectors := map[string][]float32{}
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk-%d", i)
		vectors[texts[i]] = []float32{float32(i + 1), 1}
	}
	emb := &stubEmbedder{vectors: vectors}

	var (
		mu       sync.Mutex
		progress []int
	)
	idx, err := Build(context.Background(), chunksOf(texts...), emb, BuildOptions{
		BatchSize:   2,
		Concurrency: 3,
		ModelInfo:   "stub-2",
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 7, total)
			progress = append(progress, done)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 7, idx.Len())
	assert.Equal(t, 2, idx.Dimension())
	assert.Equal(t, "stub-2", idx.ModelInfo())
	assert.Equal(t, 4, emb.callCount())

	for i, e := range idx.entries {
		assert.Equal(t, texts[i], e.Chunk.Text)
		assert.Equal(t, vectors[texts[i]], e.Vector)
	}

	require.Len(t, progress, 4)
	assert.Equal(t, 7, progress[len(progress)-1])
}

func TestBuild_ZeroChunks(t *testing.T) {
	emb := &stubEmbedder{}
	idx, err := Build(context.Background(), nil, emb, BuildOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, idx.Len())
	assert.Zero(t, emb.callCount())

	_, err = idx.Query([]float32{1}, 1)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestBuild_FailureProducesNoIndex(t *testing.T) {
	boom := errors.New("rate limited")
	emb := &stubEmbedder{fail: map[string]error{"bad": boom}}

	idx, err := Build(context.Background(), chunksOf("good", "bad", "fine"), emb, BuildOptions{BatchSize: 1})
	assert.Nil(t, idx)

	var embErr *EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, "build", embErr.Op)
	assert.ErrorIs(t, err, boom)
}

func TestBuild_DimensionMismatch(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"one": {1, 0},
		"two": {1, 0, 0},
	}}

	idx, err := Build(context.Background(), chunksOf("one", "two"), emb, BuildOptions{BatchSize: 1})
	assert.Nil(t, idx)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	var embErr *EmbeddingError
	assert.ErrorAs(t, err, &embErr)
}

// shortEmbedder drops the last vector of every batch
type shortEmbedder struct{ stubEmbedder }

func (s *shortEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := s.stubEmbedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	return vecs[:len(vecs)-1], nil
}

func TestBuild_VectorCountMismatch(t *testing.T) {
	idx, err := Build(context.Background(), chunksOf("a", "b"), &shortEmbedder{}, BuildOptions{})
	assert.Nil(t, idx)

	var embErr *EmbeddingError
	assert.ErrorAs(t, err, &embErr)
}

func TestBuild_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	idx, err := Build(ctx, chunksOf("a", "b"), &stubEmbedder{}, BuildOptions{})
	assert.Nil(t, idx)
	assert.ErrorIs(t, err, context.Canceled)
}
