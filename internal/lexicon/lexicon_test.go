package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

func writeList(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadWordSet(t *testing.T) {
	path := writeList(t, "stopwords.txt", "the\n A \n\nof\r\n")
	set, err := LoadWordSet(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "of", "the"}, set.Words())
}

func TestLoadWordSetMissingFile(t *testing.T) {
	_, err := LoadWordSet(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrLexiconUnreadable)
	assert.Contains(t, err.Error(), "nope.txt")
}

func TestFilterApply(t *testing.T) {
	f := NewFilter(NewWordSet("the", "a"), NewWordSet(",", "."))
	got := f.Apply([]string{"the", "cat", ",", "sat", "a", "mat", "."})
	assert.Equal(t, []string{"cat", "sat", "mat"}, got)
	assert.True(t, f.FiltersPunctuation())
}

func TestFilterWithoutPunctuation(t *testing.T) {
	f := NewFilter(NewWordSet("the"), nil)
	assert.Equal(t, []string{"cat", ","}, f.Apply([]string{"the", "cat", ","}))
	assert.False(t, f.FiltersPunctuation())
}

func TestFilterAllExcluded(t *testing.T) {
	f := NewFilter(NewWordSet("the", "of"), nil)
	got := f.Apply([]string{"the", "of", "the"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoad(t *testing.T) {
	stop := writeList(t, "stop.txt", "the\n")
	punct := writeList(t, "punct.txt", "!\n?\n")

	f, err := Load(stop, punct)
	require.NoError(t, err)
	assert.True(t, f.Excluded("the"))
	assert.True(t, f.Excluded("!"))
	assert.False(t, f.Excluded("cat"))

	_, err = Load(stop, filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrLexiconUnreadable)
	assert.Contains(t, err.Error(), "loading punctuations")
}
