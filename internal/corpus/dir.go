package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

// DirSource reads documents named <DocumentID>.<ext> from a directory.
// Markdown files are rendered to plain text; everything else is read as
// UTF-8 text.
type DirSource struct {
	dir      string
	markdown *MarkdownRenderer
	logger   *slog.Logger
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{
		dir:      dir,
		markdown: NewMarkdownRenderer(),
		logger:   slog.Default().With("component", "corpus", "dir", dir),
	}
}

func (s *DirSource) List(ctx context.Context) ([]Ref, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading directory %s: %v", apperrors.ErrCorpusUnreadable, s.dir, err)
	}
	refs := make([]Ref, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		id, err := ParseDocID(name)
		if err != nil {
			return nil, err
		}
		refs = append(refs, Ref{ID: id, Name: name})
	}
	if err := sortRefs(refs); err != nil {
		return nil, err
	}
	s.logger.Debug("corpus listed", "documents", len(refs))
	return refs, nil
}

func (s *DirSource) Read(ctx context.Context, ref Ref) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, ref.Name)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", apperrors.ErrDocumentUnreadable, path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s: not valid UTF-8 text", apperrors.ErrDocumentUnreadable, path)
	}
	if IsMarkdown(ref.Name) {
		return s.markdown.Render(data), nil
	}
	return string(data), nil
}
