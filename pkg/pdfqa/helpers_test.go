package pdfqa

import (
	"context"
	"strings"
	"sync"
	"time"
)

// stubEmbedder maps texts to fixed vectors. Unknown texts get a vector
// derived from their first letter so the dimension stays constant.
type stubEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	fail    map[string]error
	delay   time.Duration // Sleeps without watching ctx
	calls   int
	texts   []string
}

func (s *stubEmbedder) vector(text string) []float32 {
	if v, ok := s.vectors[text]; ok {
		return v
	}
	v := make([]float32, 4)
	if text != "" {
		v[int(strings.ToLower(text)[0])%4] = 1
	}
	return v
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	s.calls++
	s.texts = append(s.texts, texts...)
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := s.fail[t]; err != nil {
			return nil, err
		}
		out[i] = s.vector(t)
	}
	return out, nil
}

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubGenerator records prompts and returns a canned answer
type stubGenerator struct {
	mu      sync.Mutex
	answer  string
	err     error
	delay   time.Duration
	prompts []string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func chunksOf(texts ...string) []Chunk {
	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = Chunk{
			ID:    t,
			Index: i,
			Page:  i + 1,
			Start: 0,
			End:   len([]rune(t)),
			Text:  t,
		}
	}
	return chunks
}

// indexOf builds an index directly from vectors, bypassing the embedder
func indexOf(texts []string, vectors [][]float32) *VectorIndex {
	s := &Snapshot{
		Chunks:     chunksOf(texts...),
		Embeddings: vectors,
		Dimension:  len(vectors[0]),
		ModelInfo:  "stub",
	}
	idx, err := LoadIndex(s)
	if err != nil {
		panic(err)
	}
	return idx
}
