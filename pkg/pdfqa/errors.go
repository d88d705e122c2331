package pdfqa

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyIndex is returned when querying an index that holds no chunks.
	ErrEmptyIndex = errors.New("index contains no chunks")
	// ErrInvalidQuestion is returned for a blank question.
	ErrInvalidQuestion = errors.New("question must not be empty")
	// ErrInvalidK is returned when k < 1.
	ErrInvalidK = errors.New("k must be >= 1")
	// ErrDimensionMismatch is returned when vectors of different sizes meet.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// EmbeddingError reports a failure of the embedder, including timeouts and
// vectors of an unexpected shape.
type EmbeddingError struct {
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed (%s): %v", e.Op, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// GenerationError reports a failure of the answer generator.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
