package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePDF renders one page per entry of pages; an empty entry gives a blank page.
func writePDF(t *testing.T, pages ...string) string {
	t.Helper()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		doc.AddPage()
		if text != "" {
			doc.Cell(0, 10, text)
		}
	}

	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, doc.OutputFileAndClose(path))
	return path
}

func TestLoad_ExtractsPages(t *testing.T) {
	path := writePDF(t, "The invoice total is 42.17", "Payment is due on May 1")

	doc, err := NewPDFLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Pages, 2)
	assert.Equal(t, path, doc.Path)
	assert.Equal(t, 1, doc.Pages[0].Number)
	assert.Equal(t, 2, doc.Pages[1].Number)
	assert.Contains(t, doc.Pages[0].Text, "invoice")
	assert.Contains(t, doc.Pages[1].Text, "due")
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.pdf")

	_, err := NewPDFLoader(nil).Load(context.Background(), path)

	var loadErr *DocumentLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, path, loadErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0644))

	_, err := NewPDFLoader(nil).Load(context.Background(), path)

	var loadErr *DocumentLoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestLoad_Directory(t *testing.T) {
	_, err := NewPDFLoader(nil).Load(context.Background(), t.TempDir())

	var loadErr *DocumentLoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestLoad_NoText(t *testing.T) {
	path := writePDF(t, "", "")

	_, err := NewPDFLoader(nil).Load(context.Background(), path)

	var loadErr *DocumentLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, ErrNoText)
}
