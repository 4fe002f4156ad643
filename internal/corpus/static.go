package corpus

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

// StaticSource serves documents held in memory. Used by benchmarks, tests
// and embedders that already have their texts loaded.
type StaticSource struct {
	docs map[index.DocID]string
}

func NewStaticSource(docs map[index.DocID]string) *StaticSource {
	return &StaticSource{docs: docs}
}

func (s *StaticSource) List(ctx context.Context) ([]Ref, error) {
	refs := make([]Ref, 0, len(s.docs))
	for id := range s.docs {
		refs = append(refs, Ref{ID: id, Name: strconv.FormatUint(uint64(id), 10)})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, ctx.Err()
}

func (s *StaticSource) Read(ctx context.Context, ref Ref) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, ok := s.docs[ref.ID]
	if !ok {
		return "", fmt.Errorf("%w: %d", apperrors.ErrDocumentUnreadable, ref.ID)
	}
	return text, nil
}
