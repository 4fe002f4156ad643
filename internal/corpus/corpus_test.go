package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

func writeDocs(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestParseDocID(t *testing.T) {
	tests := []struct {
		name    string
		want    index.DocID
		wantErr bool
	}{
		{"1.txt", 1, false},
		{"42", 42, false},
		{"007.tar.gz", 7, false},
		{"readme.txt", 0, true},
		{"-3.txt", 0, true},
		{".txt", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDocID(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidDocumentID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDirSourceListSorted(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"10.txt":  "ten",
		"2.txt":   "two",
		"1.txt":   "one",
		".hidden": "ignored",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "3"), 0o755))

	refs, err := NewDirSource(dir).List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, []index.DocID{1, 2, 10}, []index.DocID{refs[0].ID, refs[1].ID, refs[2].ID})
}

func TestDirSourceRead(t *testing.T) {
	dir := writeDocs(t, map[string]string{"1.txt": "The cat sat"})
	src := NewDirSource(dir)
	text, err := src.Read(context.Background(), Ref{ID: 1, Name: "1.txt"})
	require.NoError(t, err)
	assert.Equal(t, "The cat sat", text)
}

func TestDirSourceMissingDirectory(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "missing")).List(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrCorpusUnreadable)
}

func TestDirSourceInvalidName(t *testing.T) {
	dir := writeDocs(t, map[string]string{"1.txt": "a", "notes.txt": "b"})
	_, err := NewDirSource(dir).List(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrInvalidDocumentID)
}

func TestDirSourceDuplicateID(t *testing.T) {
	dir := writeDocs(t, map[string]string{"1.txt": "a", "1.md": "b"})
	_, err := NewDirSource(dir).List(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrDuplicateDocument)
}

func TestDirSourceInvalidUTF8(t *testing.T) {
	dir := writeDocs(t, map[string]string{"1.txt": "ok \xff\xfe"})
	_, err := NewDirSource(dir).Read(context.Background(), Ref{ID: 1, Name: "1.txt"})
	assert.ErrorIs(t, err, apperrors.ErrDocumentUnreadable)
}

func TestDirSourceUnreadableFile(t *testing.T) {
	_, err := NewDirSource(t.TempDir()).Read(context.Background(), Ref{ID: 5, Name: "5.txt"})
	assert.ErrorIs(t, err, apperrors.ErrDocumentUnreadable)
}

func TestDirSourceMarkdown(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"1.md": "# Cats\n\nThe **cat** sat on the [mat](http://example.com).\n\n<div>hidden</div>\n",
	})
	text, err := NewDirSource(dir).Read(context.Background(), Ref{ID: 1, Name: "1.md"})
	require.NoError(t, err)
	assert.Contains(t, text, "Cats")
	assert.Contains(t, text, "cat")
	assert.Contains(t, text, "mat")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "example.com")
	assert.NotContains(t, text, "hidden")
}

func TestDirSourceCanceledContext(t *testing.T) {
	dir := writeDocs(t, map[string]string{"1.txt": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirSource(dir).Read(ctx, Ref{ID: 1, Name: "1.txt"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsMarkdown(t *testing.T) {
	assert.True(t, IsMarkdown("1.md"))
	assert.True(t, IsMarkdown("1.MARKDOWN"))
	assert.False(t, IsMarkdown("1.txt"))
	assert.False(t, IsMarkdown("1"))
}
