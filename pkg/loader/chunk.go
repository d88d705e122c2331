package loader

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"github.com/google/uuid"
	"github.com/perbu/pdfqa/pkg/pdfqa"
)

// ErrInvalidChunking is returned for a max size <= 0 or an overlap outside [0, maxSize)
var ErrInvalidChunking = errors.New("invalid chunking parameters")

var chunkNamespace = uuid.MustParse("4f7c1d2e-9b3a-5c6d-8e0f-a1b2c3d4e5f6")

// Split cuts every page of doc into chunks of at most maxSize runes, with
// consecutive chunks of a page sharing exactly overlap runes. Chunks never
// span pages and are verbatim substrings of the page text.
func Split(doc pdfqa.Document, maxSize, overlap int) ([]pdfqa.Chunk, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: max size must be > 0", ErrInvalidChunking)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: overlap must be >= 0 and < max size", ErrInvalidChunking)
	}

	var chunks []pdfqa.Chunk
	for _, page := range doc.Pages {
		runes := []rune(page.Text)
		for _, s := range splitRunes(runes, maxSize, overlap) {
			chunks = append(chunks, pdfqa.Chunk{
				ID:    chunkID(doc.Path, page.Number, s.start),
				Index: len(chunks),
				Page:  page.Number,
				Start: s.start,
				End:   s.end,
				Text:  string(runes[s.start:s.end]),
			})
		}
	}

	return chunks, nil
}

type span struct {
	start int
	end   int
}

// splitRunes is the greedy window walk over one page. A cut is searched in
// (start+max(overlap, maxSize/2), start+maxSize], so the next window, which
// begins at cut-overlap, always moves forward and a soft boundary never
// yields a chunk shorter than half the window.
func splitRunes(runes []rune, maxSize, overlap int) []span {
	if isBlank(runes) {
		return nil
	}

	var spans []span
	start := 0
	for {
		if len(runes)-start <= maxSize {
			return append(spans, span{start: start, end: len(runes)})
		}
		cut := breakPoint(runes, start+max(overlap, maxSize/2), start+maxSize)
		spans = append(spans, span{start: start, end: cut})
		start = cut - overlap
	}
}

// boundaries in order of preference: paragraph, sentence, word
var boundaries = []func(runes []rune, cut int) bool{
	func(r []rune, cut int) bool {
		return cut >= 2 && r[cut-1] == '\n' && r[cut-2] == '\n'
	},
	func(r []rune, cut int) bool {
		if r[cut-1] == '\n' {
			return true
		}
		return cut >= 2 && unicode.IsSpace(r[cut-1]) && isSentenceEnd(r[cut-2])
	},
	func(r []rune, cut int) bool {
		return unicode.IsSpace(r[cut-1])
	},
}

// breakPoint returns the last position in (lo, hi] that ends on the
// strongest available boundary, or hi for a hard cut.
func breakPoint(runes []rune, lo, hi int) int {
	for _, isBoundary := range boundaries {
		for cut := hi; cut > lo; cut-- {
			if isBoundary(runes, cut) {
				return cut
			}
		}
	}
	return hi
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isBlank(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func chunkID(path string, page, start int) string {
	key := path + "#" + strconv.Itoa(page) + "@" + strconv.Itoa(start)
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}
