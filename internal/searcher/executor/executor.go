package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
)

type SearchResult struct {
	Query           string              `json:"query"`
	Terms           []string            `json:"terms"`
	Excluded        []string            `json:"excluded,omitempty"`
	TotalHits       int                 `json:"total_hits"`
	Results         []ranker.ScoredDoc  `json:"results"`
	TermStats       []ranker.TermWeight `json:"term_stats"`
	OutOfVocabulary []string            `json:"out_of_vocabulary,omitempty"`
	Fingerprint     uint32              `json:"index_fingerprint"`
}

// Executor scores parsed queries against one immutable index. It is safe
// for concurrent use; every call gets its own query vector and accumulator.
type Executor struct {
	index   *index.Index
	parser  *parser.Parser
	metrics *metrics.Metrics
	topK    int
	logger  *slog.Logger
}

// New creates an Executor. m may be nil; topK <= 0 selects ranker.DefaultTopK.
func New(idx *index.Index, p *parser.Parser, m *metrics.Metrics, topK int) *Executor {
	if topK <= 0 {
		topK = ranker.DefaultTopK
	}
	return &Executor{
		index:   idx,
		parser:  p,
		metrics: m,
		topK:    topK,
		logger:  slog.Default().With("component", "query-executor"),
	}
}

func (e *Executor) Index() *index.Index {
	return e.index
}

func (e *Executor) Parse(query string) *parser.QueryPlan {
	return e.parser.Parse(query)
}

// Search parses and executes query.
func (e *Executor) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	return e.Execute(ctx, e.parser.Parse(query), limit)
}

// Execute ranks plan against the index. limit <= 0 uses the configured top-K.
// A plan with no terms yields an empty result, never an error.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	if e.index == nil {
		return nil, apperrors.ErrIndexNotReady
	}
	if limit <= 0 {
		limit = e.topK
	}
	start := time.Now()
	result := &SearchResult{
		Query:       plan.RawQuery,
		Terms:       plan.Terms,
		Excluded:    plan.Excluded,
		Results:     []ranker.ScoredDoc{},
		TermStats:   []ranker.TermWeight{},
		Fingerprint: e.index.Fingerprint(),
	}
	if plan.Empty() {
		e.record("empty_query", result, start)
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		e.record("error", result, start)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTimeout, err)
	}

	qv := ranker.BuildQueryVector(e.index, plan.Terms)
	scores := ranker.Score(e.index, qv)
	for _, score := range scores {
		if score != 0 {
			result.TotalHits++
		}
	}
	result.Results = ranker.TopK(scores, limit)
	result.TermStats = qv
	result.OutOfVocabulary = qv.OutOfVocabulary()

	resultType := "hit"
	if len(result.Results) == 0 {
		resultType = "zero_result"
	}
	e.record(resultType, result, start)

	log := e.logger
	if id := logger.RequestID(ctx); id != "" {
		log = log.With("request_id", id)
	}
	log.Info("query executed",
		"query", plan.RawQuery,
		"terms", plan.Terms,
		"out_of_vocabulary", result.OutOfVocabulary,
		"total_hits", result.TotalHits,
		"results", len(result.Results),
		"latency", time.Since(start).String(),
	)
	return result, nil
}

func (e *Executor) record(resultType string, result *SearchResult, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	e.metrics.SearchLatency.WithLabelValues("computed").Observe(time.Since(start).Seconds())
	e.metrics.SearchResultsCount.Observe(float64(len(result.Results)))
	e.metrics.OutOfVocabularyTotal.Add(float64(len(result.OutOfVocabulary)))
}
