package loader

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perbu/pdfqa/pkg/pdfqa"
)

func singlePage(text string) pdfqa.Document {
	return pdfqa.Document{Path: "test.pdf", Pages: []pdfqa.Page{{Number: 1, Text: text}}}
}

func texts(chunks []pdfqa.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// reconstruct joins the chunks of one page, dropping each overlap
func reconstruct(chunks []pdfqa.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(chunks[0].Text)
	for i := 1; i < len(chunks); i++ {
		shared := chunks[i-1].End - chunks[i].Start
		b.WriteString(string([]rune(chunks[i].Text)[shared:]))
	}
	return b.String()
}

func TestSplit_ShortPageSingleChunk(t *testing.T) {
	text := "The invoice total is $42.17, due May 1."

	chunks, err := Split(singlePage(text), 1000, 200)
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, utf8.RuneCountInString(text), chunks[0].End)
}

func TestSplit_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		maxSize int
		overlap int
		want    []string
	}{
		{
			name:    "hard cut advances by window minus overlap",
			text:    "abcdefghij",
			maxSize: 4,
			overlap: 1,
			want:    []string{"abcd", "defg", "ghij"},
		},
		{
			name:    "word boundary",
			text:    "alpha beta gamma delta epsilon",
			maxSize: 20,
			overlap: 5,
			want:    []string{"alpha beta gamma ", "amma delta epsilon"},
		},
		{
			name:    "sentence before word",
			text:    "First one. Second sentence here.",
			maxSize: 20,
			overlap: 0,
			want:    []string{"First one. ", "Second sentence ", "here."},
		},
		{
			name:    "paragraph before sentence",
			text:    "Para one.\n\nPara two is here.",
			maxSize: 20,
			overlap: 0,
			want:    []string{"Para one.\n\n", "Para two is here."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Split(singlePage(tt.text), tt.maxSize, tt.overlap)
			require.NoError(t, err)
			assert.Equal(t, tt.want, texts(chunks))
		})
	}
}

func TestSplit_EarlyBoundaryIgnored(t *testing.T) {
	text := strings.Repeat("a", 201) + "\n\n" + strings.Repeat("b", 2000)

	chunks, err := Split(singlePage(text), 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	// the paragraph break sits before half the window, so it is a hard cut
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 1000, chunks[0].End)
	assert.Equal(t, 800, chunks[1].Start)
	assert.Equal(t, 1800, chunks[1].End)
	assert.Equal(t, 1600, chunks[2].Start)
	assert.Equal(t, 2203, chunks[2].End)

	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, 200, chunks[i-1].End-chunks[i].Start)
		assert.Greater(t, chunks[i].Start-chunks[i-1].Start, 500)
	}
}

func TestSplit_LateBoundaryPreferred(t *testing.T) {
	text := strings.Repeat("a", 601) + "\n\n" + strings.Repeat("b", 600)

	chunks, err := Split(singlePage(text), 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, 603, chunks[0].End)
	assert.True(t, strings.HasSuffix(chunks[0].Text, "a\n\n"))
	assert.Equal(t, 403, chunks[1].Start)
	assert.Equal(t, 1203, chunks[1].End)
}

func TestSplit_EmptyPages(t *testing.T) {
	doc := pdfqa.Document{Pages: []pdfqa.Page{
		{Number: 1, Text: ""},
		{Number: 2, Text: " \n\t "},
	}}

	chunks, err := Split(doc, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_ChunksStayOnTheirPage(t *testing.T) {
	doc := pdfqa.Document{Path: "two.pdf", Pages: []pdfqa.Page{
		{Number: 1, Text: "alpha beta gamma delta epsilon"},
		{Number: 2, Text: ""},
		{Number: 3, Text: "alpha beta gamma delta epsilon"},
	}}

	chunks, err := Split(doc, 20, 5)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
	assert.Equal(t, []int{1, 1, 3, 3}, []int{chunks[0].Page, chunks[1].Page, chunks[2].Page, chunks[3].Page})

	// Same text on different pages must not share an ID
	assert.NotEqual(t, chunks[0].ID, chunks[2].ID)
}

func TestSplit_DeterministicIDs(t *testing.T) {
	doc := singlePage("alpha beta gamma delta epsilon")

	a, err := Split(doc, 20, 5)
	require.NoError(t, err)
	b, err := Split(doc, 20, 5)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestSplit_ValidationErrors(t *testing.T) {
	doc := singlePage("abc")

	_, err := Split(doc, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidChunking)

	_, err = Split(doc, 2, 2)
	assert.ErrorIs(t, err, ErrInvalidChunking)

	_, err = Split(doc, 2, -1)
	assert.ErrorIs(t, err, ErrInvalidChunking)
}

func TestSplit_RoundTripAndBounds(t *testing.T) {
	words := []string{"invoice", "total", "due", "é", "日本語", "gas", "meter", "reading", "42.17"}
	seps := []string{" ", " ", " ", ". ", "\n", "\n\n", "! ", ""}

	rng := rand.New(rand.NewSource(7))
	params := []struct{ maxSize, overlap int }{
		{1, 0}, {5, 0}, {5, 4}, {16, 3}, {50, 10}, {200, 199}, {1000, 200},
	}

	for trial := 0; trial < 40; trial++ {
		var b strings.Builder
		n := 1 + rng.Intn(300)
		for i := 0; i < n; i++ {
			b.WriteString(words[rng.Intn(len(words))])
			b.WriteString(seps[rng.Intn(len(seps))])
		}
		text := b.String()
		runes := []rune(text)

		for _, p := range params {
			chunks, err := Split(singlePage(text), p.maxSize, p.overlap)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			assert.Equal(t, 0, chunks[0].Start)
			assert.Equal(t, len(runes), chunks[len(chunks)-1].End)

			for i, c := range chunks {
				require.LessOrEqual(t, utf8.RuneCountInString(c.Text), p.maxSize)
				require.Equal(t, string(runes[c.Start:c.End]), c.Text)
				if i > 0 {
					prev := chunks[i-1]
					require.Equal(t, p.overlap, prev.End-c.Start, "overlap between chunk %d and %d", i-1, i)
					require.Greater(t, c.End, prev.End)
				}
				if i < len(chunks)-1 {
					require.Greater(t, c.End-c.Start, p.maxSize/2, "chunk %d cut too early", i)
				}
			}

			require.Equal(t, text, reconstruct(chunks), "maxSize=%d overlap=%d", p.maxSize, p.overlap)
		}
	}
}
