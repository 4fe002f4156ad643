package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

// Querier is the subset of *postgres.Client the source needs.
type Querier interface {
	InTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error
}

// PostgresSource reads documents from a table with columns (id, body). The
// whole table is loaded in one read-only transaction by List so that later
// reads see the same snapshot.
type PostgresSource struct {
	db     Querier
	table  string
	logger *slog.Logger

	mu     sync.RWMutex
	bodies map[index.DocID]string
}

func NewPostgresSource(db Querier, table string) *PostgresSource {
	return &PostgresSource{
		db:     db,
		table:  table,
		logger: slog.Default().With("component", "corpus", "table", table),
		bodies: make(map[index.DocID]string),
	}
}

func (s *PostgresSource) query() string {
	return fmt.Sprintf("SELECT id, body FROM %s ORDER BY id", pq.QuoteIdentifier(s.table))
}

func (s *PostgresSource) List(ctx context.Context) ([]Ref, error) {
	var refs []Ref
	bodies := make(map[index.DocID]string)

	err := s.db.InTx(ctx, &sql.TxOptions{ReadOnly: true}, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, s.query())
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			var body string
			if err := rows.Scan(&id, &body); err != nil {
				return err
			}
			if id < 0 {
				return fmt.Errorf("%w: negative id %d", apperrors.ErrInvalidDocumentID, id)
			}
			if !utf8.ValidString(body) {
				return fmt.Errorf("%w: row %d: not valid UTF-8 text", apperrors.ErrDocumentUnreadable, id)
			}
			doc := index.DocID(id)
			refs = append(refs, Ref{ID: doc, Name: strconv.FormatInt(id, 10)})
			bodies[doc] = body
		}
		return rows.Err()
	})
	if err != nil {
		if apperrors.IsBuildFailure(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: querying table %s: %v", apperrors.ErrCorpusUnreadable, s.table, err)
	}
	if err := sortRefs(refs); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.bodies = bodies
	s.mu.Unlock()
	s.logger.Debug("corpus listed", "documents", len(refs))
	return refs, nil
}

func (s *PostgresSource) Read(ctx context.Context, ref Ref) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	body, ok := s.bodies[ref.ID]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: row %d was not listed", apperrors.ErrDocumentUnreadable, ref.ID)
	}
	return body, nil
}
