// Package corpus lists and reads the documents the index is built from.
// Sources return document references in ascending DocID order; reading a
// reference yields the document's plain text.
package corpus

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

// Ref names one document of a corpus.
type Ref struct {
	ID   index.DocID
	Name string
}

// Source is a document collection.
type Source interface {
	// List returns every document reference sorted by ascending ID.
	List(ctx context.Context) ([]Ref, error)
	// Read returns the document text.
	Read(ctx context.Context, ref Ref) (string, error)
}

// ParseDocID parses the numeric stem of a file name, e.g. "12.txt" -> 12.
func ParseDocID(name string) (index.DocID, error) {
	stem, _, _ := strings.Cut(name, ".")
	id, err := strconv.ParseUint(stem, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q does not start with a numeric document id", apperrors.ErrInvalidDocumentID, name)
	}
	return index.DocID(id), nil
}

// sortRefs orders refs by ID and rejects duplicate IDs.
func sortRefs(refs []Ref) error {
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	for i := 1; i < len(refs); i++ {
		if refs[i].ID == refs[i-1].ID {
			return fmt.Errorf("%w: %d (%s and %s)", apperrors.ErrDuplicateDocument, refs[i].ID, refs[i-1].Name, refs[i].Name)
		}
	}
	return nil
}
