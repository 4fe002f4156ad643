package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corpusArgs(t *testing.T) []string {
	t.Helper()
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stop.txt"), []byte("the\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "1.txt"), []byte("the cat sat"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "2.txt"), []byte("the dog sat"), 0o644))
	return []string{"--corpus", docs, "--stopwords", filepath.Join(root, "stop.txt"), "--log-level", "error"}
}

func TestExecuteVersion(t *testing.T) {
	var out strings.Builder
	require.NoError(t, Execute("1.0.0", "vsm", []string{"--version"}, strings.NewReader(""), &out))
	assert.Equal(t, "1.0.0\n", out.String())
}

func TestExecuteHelp(t *testing.T) {
	var out strings.Builder
	require.NoError(t, Execute("1.0.0", "vsm", []string{"--help"}, strings.NewReader(""), &out))
	for _, sub := range []string{"search", "serve", "mcp", "dump"} {
		assert.Contains(t, out.String(), sub)
	}
}

func TestExecuteInvalidFlag(t *testing.T) {
	var out strings.Builder
	assert.Error(t, Execute("1.0.0", "vsm", []string{"--invalid-flag"}, strings.NewReader(""), &out))
}

func TestExecuteSearchSession(t *testing.T) {
	var out strings.Builder
	args := append([]string{"search"}, corpusArgs(t)...)
	require.NoError(t, Execute("1.0.0", "vsm", args, strings.NewReader("cat\nzebra\n:q\n"), &out))

	text := out.String()
	assert.Contains(t, text, "Enter your query:")
	assert.Contains(t, text, "Doc  1 - Relevance ")
	assert.Contains(t, text, "No matching documents")
	assert.Contains(t, text, "Unknown terms: zebra")
}

func TestExecuteDumpToStdout(t *testing.T) {
	var out strings.Builder
	args := append([]string{"dump"}, corpusArgs(t)...)
	require.NoError(t, Execute("1.0.0", "vsm", args, strings.NewReader(""), &out))
	assert.True(t, strings.HasPrefix(out.String(), "# documents=2 terms=3 "))
	assert.Contains(t, out.String(), "\ncat df=1\n")
}

func TestExecuteBuildFailure(t *testing.T) {
	var out strings.Builder
	args := []string{"search", "--corpus", filepath.Join(t.TempDir(), "absent"), "--log-level", "error"}
	err := Execute("1.0.0", "vsm", args, strings.NewReader(""), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index build failed")
}

func TestRunMainFailure(t *testing.T) {
	exitCode := -1
	runMain([]string{"vsm", "--invalid"}, func(code int) { exitCode = code })
	assert.Equal(t, 1, exitCode)
}
