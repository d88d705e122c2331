package pdfqa

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Snapshot holds a built index in a form that can be gob-encoded
type Snapshot struct {
	Chunks     []Chunk     // Document chunks
	Embeddings [][]float32 // Corresponding embeddings (chunk[i] ↔ embedding[i])
	ModelInfo  string      // Model name/version used
	Dimension  int         // Embedding vector dimension
	Source     string      // Path of the indexed document
	ChunkSize  int         // Chunking parameters the chunks were made with
	Overlap    int
}

// Snapshot captures the index contents
func (idx *VectorIndex) Snapshot(source string, chunkSize, overlap int) *Snapshot {
	s := &Snapshot{
		Chunks:     make([]Chunk, len(idx.entries)),
		Embeddings: make([][]float32, len(idx.entries)),
		ModelInfo:  idx.modelInfo,
		Dimension:  idx.dimension,
		Source:     source,
		ChunkSize:  chunkSize,
		Overlap:    overlap,
	}
	for i, e := range idx.entries {
		s.Chunks[i] = e.Chunk
		s.Embeddings[i] = e.Vector
	}
	return s
}

// LoadIndex creates a VectorIndex from a snapshot after checking its shape
func LoadIndex(s *Snapshot) (*VectorIndex, error) {
	if len(s.Chunks) != len(s.Embeddings) {
		return nil, fmt.Errorf("snapshot has %d chunks but %d embeddings", len(s.Chunks), len(s.Embeddings))
	}

	entries := make([]IndexEntry, len(s.Chunks))
	for i := range s.Chunks {
		if len(s.Embeddings[i]) != s.Dimension {
			return nil, fmt.Errorf("%w: snapshot entry %d has %d, expected %d",
				ErrDimensionMismatch, i, len(s.Embeddings[i]), s.Dimension)
		}
		entries[i] = IndexEntry{Chunk: s.Chunks[i], Vector: s.Embeddings[i]}
	}

	return &VectorIndex{
		entries:   entries,
		dimension: s.Dimension,
		modelInfo: s.ModelInfo,
	}, nil
}

// WriteSnapshot gob-encodes s to w
func WriteSnapshot(w io.Writer, s *Snapshot) error {
	return gob.NewEncoder(w).Encode(s)
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSnapshotFile writes s to path through a temporary file and a rename,
// so readers never observe a partial index.
func SaveSnapshotFile(path string, s *Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := WriteSnapshot(file, s); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}

	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	// Atomic rename
	return os.Rename(tmp, path)
}

// LoadSnapshotFile reads a snapshot saved by SaveSnapshotFile
func LoadSnapshotFile(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadSnapshot(file)
}
