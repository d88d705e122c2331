package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentArg(t *testing.T) {
	tests := []struct {
		name      string
		indexPath string
		args      []string
		want      string
		wantErr   bool
	}{
		{name: "pdf only", args: []string{"doc.pdf"}, want: "doc.pdf"},
		{name: "index only", indexPath: "index.gob"},
		{name: "index and pdf", indexPath: "index.gob", args: []string{"doc.pdf"}, wantErr: true},
		{name: "nothing", wantErr: true},
		{name: "two pdfs", args: []string{"a.pdf", "b.pdf"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := documentArg(tt.indexPath, tt.args)
			if tt.wantErr {
				require.ErrorIs(t, err, errUsage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
