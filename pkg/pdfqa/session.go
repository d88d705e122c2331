package pdfqa

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// DefaultTopK is the number of chunks retrieved per question
const DefaultTopK = 3

// DefaultMaxContextRunes bounds the context section of the prompt
const DefaultMaxContextRunes = 8000

// Generator produces an answer for an assembled prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SessionOptions configures a Session
type SessionOptions struct {
	K               int           // Chunks per question (default DefaultTopK)
	MaxContextRunes int           // Context bound (default DefaultMaxContextRunes, negative disables it)
	Timeout         time.Duration // Applied to the generator call, 0 disables it
	Logger          arbor.ILogger
}

// Session answers questions one at a time against a single index
type Session struct {
	retriever       *Retriever
	generator       Generator
	k               int
	maxContextRunes int
	timeout         time.Duration
	logger          arbor.ILogger
}

// NewSession wires a retriever and a generator together
func NewSession(retriever *Retriever, generator Generator, opts SessionOptions) *Session {
	if opts.K <= 0 {
		opts.K = DefaultTopK
	}
	switch {
	case opts.MaxContextRunes == 0:
		opts.MaxContextRunes = DefaultMaxContextRunes
	case opts.MaxContextRunes < 0:
		opts.MaxContextRunes = 0
	}
	if opts.Logger == nil {
		opts.Logger = arbor.NewLogger()
	}
	return &Session{
		retriever:       retriever,
		generator:       generator,
		k:               opts.K,
		maxContextRunes: opts.MaxContextRunes,
		timeout:         opts.Timeout,
		logger:          opts.Logger,
	}
}

// Ask retrieves context for question, asks the generator, and returns the
// answer with the chunks used as context. An index without chunks is not an
// error here: the generator is called with an empty context.
func (s *Session) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrInvalidQuestion
	}

	results, err := s.retriever.Retrieve(ctx, question, s.k)
	if errors.Is(err, ErrEmptyIndex) {
		s.logger.Warn().Msg("Index is empty, answering without context")
		results, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	prompt, used := BuildPrompt(question, results, s.maxContextRunes)
	if len(used) < len(results) {
		s.logger.Debug().
			Int("retrieved", len(results)).
			Int("used", len(used)).
			Msg("Context bound dropped chunks")
	}

	start := time.Now()
	text, err := callWithTimeout(ctx, s.timeout, func(ctx context.Context) (string, error) {
		return s.generator.Generate(ctx, prompt)
	})
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	s.logger.Debug().
		Int("prompt_length", len(prompt)).
		Int("answer_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Generated answer")

	return &Answer{
		Question: question,
		Text:     strings.TrimSpace(text),
		Sources:  used,
	}, nil
}
