package pdfqa

import (
	"fmt"
	"io"
	"strings"
)

// DefaultPreviewRunes is the length of the content preview shown per source
const DefaultPreviewRunes = 200

// Preview shortens text to at most n runes, appending "..." when cut
func Preview(text string, n int) string {
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

// FormatAnswer writes the answer followed by its sources with page numbers
// and a content preview.
func FormatAnswer(w io.Writer, answer *Answer, previewRunes int) error {
	if previewRunes <= 0 {
		previewRunes = DefaultPreviewRunes
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Answer: %s\n", answer.Text)
	if len(answer.Sources) == 0 {
		b.WriteString("\nNo sources were found in the document.\n")
	} else {
		b.WriteString("\nSources:\n")
		for i, src := range answer.Sources {
			fmt.Fprintf(&b, "Source %d: Page %d (score %.2f)\n", i+1, src.Chunk.Page, src.Score)
			fmt.Fprintf(&b, "Content preview: %s\n", Preview(src.Chunk.Text, previewRunes))
			b.WriteString(strings.Repeat("-", 50) + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
