package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"

	"github.com/perbu/pdfqa/pkg/pdfqa"
)

// ErrNoText is returned when no page of a PDF yields any text
var ErrNoText = errors.New("no extractable text")

// DocumentLoadError reports a missing, unreadable, or empty input document
type DocumentLoadError struct {
	Path string
	Err  error
}

func (e *DocumentLoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

func (e *DocumentLoadError) Unwrap() error { return e.Err }

// PDFLoader reads the text of every page of a PDF file
type PDFLoader struct {
	logger arbor.ILogger
}

// NewPDFLoader creates a loader; a nil logger is replaced by a default one
func NewPDFLoader(logger arbor.ILogger) *PDFLoader {
	if logger == nil {
		logger = arbor.NewLogger()
	}
	return &PDFLoader{logger: logger}
}

// Load validates the file structure and extracts the text of each page.
// Pages keep their 1-based numbers; pages without text are kept with an
// empty Text so numbering stays aligned with the file.
func (l *PDFLoader) Load(ctx context.Context, path string) (pdfqa.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return pdfqa.Document{}, &DocumentLoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return pdfqa.Document{}, &DocumentLoadError{Path: path, Err: errors.New("is a directory")}
	}

	// pdfcpu rejects structurally broken files before text extraction
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return pdfqa.Document{}, &DocumentLoadError{Path: path, Err: fmt.Errorf("invalid PDF: %w", err)}
	}

	pages, err := l.extractPages(ctx, path)
	if err != nil {
		return pdfqa.Document{}, &DocumentLoadError{Path: path, Err: err}
	}

	if len(pages) != pdfCtx.PageCount {
		l.logger.Warn().
			Int("pdfcpu_pages", pdfCtx.PageCount).
			Int("extracted_pages", len(pages)).
			Str("path", path).
			Msg("Page count mismatch between PDF readers")
	}

	withText := 0
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			withText++
		}
	}
	if withText == 0 {
		return pdfqa.Document{}, &DocumentLoadError{Path: path, Err: ErrNoText}
	}

	l.logger.Info().
		Str("path", path).
		Int("pages", len(pages)).
		Int("pages_with_text", withText).
		Msg("Loaded PDF")

	return pdfqa.Document{Path: path, Pages: pages}, nil
}

func (l *PDFLoader) extractPages(ctx context.Context, path string) (pages []pdfqa.Page, err error) {
	// The PDF reader panics on some malformed content streams
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("reading PDF text: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages = make([]pdfqa.Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := pdfqa.Page{Number: i}
		p := r.Page(i)
		if !p.V.IsNull() {
			text, err := p.GetPlainText(nil)
			if err != nil {
				l.logger.Warn().Err(err).Int("page", i).Msg("Failed to extract page text")
			} else {
				page.Text = text
			}
		}
		pages = append(pages, page)
	}

	return pages, nil
}
