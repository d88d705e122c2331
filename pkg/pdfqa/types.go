package pdfqa

// Page is the extracted text of a single PDF page
type Page struct {
	Number int    // 1-based page number
	Text   string // Raw extracted text
}

// Document is an ordered, immutable sequence of pages loaded from one file
type Document struct {
	Path  string
	Pages []Page
}

// Chunk represents a bounded span of a page's text
type Chunk struct {
	ID    string // Stable identifier derived from path, page and offset
	Index int    // Ordinal within the document
	Page  int    // Source page number (1-based)
	Start int    // Rune offset of the first character within the page
	End   int    // Rune offset one past the last character within the page
	Text  string // Verbatim page text in [Start, End)
}

// IndexEntry pairs a chunk with its embedding
type IndexEntry struct {
	Chunk  Chunk
	Vector []float32
}

// SearchResult represents a single retrieved chunk with its score
type SearchResult struct {
	Chunk Chunk
	Score float32
}

// RetrievalResult is ordered by descending score
type RetrievalResult []SearchResult

// Answer is the generated text together with the chunks that grounded it
type Answer struct {
	Question string
	Text     string
	Sources  RetrievalResult
}
