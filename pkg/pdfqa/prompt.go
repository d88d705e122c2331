package pdfqa

import (
	"strings"
	"unicode/utf8"
)

const promptHeader = `Use the following pieces of context to answer the question at the end.
If you don't know the answer, just say "I don't know", don't try to make up an answer.

Context:
`

// BuildPrompt assembles the generation prompt. Chunks are added in the
// given order while the context stays within maxContextRunes (0 means no
// limit); the chunks that made it into the prompt are returned. The top
// chunk is always included, cut to maxContextRunes if it alone is longer.
func BuildPrompt(question string, results RetrievalResult, maxContextRunes int) (string, RetrievalResult) {
	var contextText strings.Builder
	used := make(RetrievalResult, 0, len(results))
	size := 0

	for _, r := range results {
		text := r.Chunk.Text
		n := utf8.RuneCountInString(text)
		if len(used) == 0 && maxContextRunes > 0 && n > maxContextRunes {
			text = string([]rune(text)[:maxContextRunes])
			n = maxContextRunes
		}
		if len(used) > 0 {
			n += 2 // separator
		}
		if maxContextRunes > 0 && size+n > maxContextRunes {
			break
		}
		if len(used) > 0 {
			contextText.WriteString("\n\n")
		}
		contextText.WriteString(text)
		size += n
		used = append(used, r)
	}

	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString(contextText.String())
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")

	return b.String(), used
}
