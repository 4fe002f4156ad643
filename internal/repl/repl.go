// Package repl runs the interactive query loop: one query per input line,
// ranked results printed after each.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/executor"
)

const Prompt = "Enter your query:"

// MaxQueryBytes bounds a single query line.
const MaxQueryBytes = 1 << 20

var errQueryTooLong = errors.New("query too long")

// Searcher is satisfied by *executor.Executor.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (*executor.SearchResult, error)
}

type REPL struct {
	searcher Searcher
	tracker  analytics.Tracker
	limit    int
	maxLine  int
	in       io.Reader
	out      io.Writer
	logger   *slog.Logger
}

// New creates a loop reading from in and writing to out. tracker may be nil.
func New(searcher Searcher, tracker analytics.Tracker, limit int, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		searcher: searcher,
		tracker:  tracker,
		limit:    limit,
		maxLine:  MaxQueryBytes,
		in:       in,
		out:      out,
		logger:   slog.Default().With("component", "repl"),
	}
}

// IsQuit reports whether line is a quit command.
func IsQuit(line string) bool {
	switch strings.TrimSpace(line) {
	case ":q", ":quit", "exit":
		return true
	}
	return false
}

// Run reads queries until a quit command, EOF or ctx cancellation. A failed
// or oversized query prints a diagnostic and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprintln(r.out, Prompt)
		line, err := r.readLine(reader)
		switch {
		case errors.Is(err, errQueryTooLong):
			r.logger.Warn("query rejected", "limit_bytes", r.maxLine)
			fmt.Fprintf(r.out, "Query failed: longer than %d bytes\n", r.maxLine)
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("reading query: %w", err)
		}
		if IsQuit(line) {
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		r.query(ctx, line)
	}
}

// readLine returns the next line without its terminator. A line longer than
// maxLine is consumed in full and reported as errQueryTooLong.
func (r *REPL) readLine(reader *bufio.Reader) (string, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(buf) > 0 || tooLong) {
				break
			}
			return "", err
		}
		if !tooLong {
			if len(buf)+len(chunk) > r.maxLine {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			break
		}
	}
	if tooLong {
		return "", errQueryTooLong
	}
	return string(buf), nil
}

func (r *REPL) query(ctx context.Context, line string) {
	start := time.Now()
	result, err := r.searcher.Search(ctx, line, r.limit)
	if err != nil {
		r.logger.Error("query failed", "query", line, "error", err)
		fmt.Fprintf(r.out, "Query failed: %v\n", err)
		return
	}
	Render(r.out, result)

	if r.tracker != nil {
		r.tracker.Track(analytics.QueryEvent{
			Type:            analytics.ClassifyEvent(result.Terms, len(result.Results)),
			Surface:         analytics.SurfaceREPL,
			Query:           line,
			Terms:           result.Terms,
			OutOfVocabulary: result.OutOfVocabulary,
			TotalHits:       result.TotalHits,
			Returned:        len(result.Results),
			LatencyMs:       time.Since(start).Milliseconds(),
			Fingerprint:     result.Fingerprint,
			Timestamp:       time.Now().UTC(),
		})
	}
}

// Render prints one line per ranked document, then any unknown terms.
func Render(w io.Writer, result *executor.SearchResult) {
	if len(result.Results) == 0 {
		fmt.Fprintln(w, "No matching documents")
	}
	for _, doc := range result.Results {
		fmt.Fprintf(w, "Doc %2d - Relevance %.4f\n", doc.DocID, doc.Score)
	}
	if len(result.OutOfVocabulary) > 0 {
		fmt.Fprintf(w, "Unknown terms: %s\n", strings.Join(result.OutOfVocabulary, ", "))
	}
}
