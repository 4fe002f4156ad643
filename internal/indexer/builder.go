package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/lexicon"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
)

var ErrBuilderFinalized = errors.New("index builder already finalized")

type Options struct {
	// Workers bounds concurrent document reads and tokenization in Build.
	Workers int
	// DocumentFrequency is config.DocFreqDistinct or config.DocFreqLegacy.
	DocumentFrequency string
}

func OptionsFromConfig(cfg config.IndexerConfig) Options {
	return Options{Workers: cfg.Workers, DocumentFrequency: cfg.DocumentFrequency}
}

// Builder accumulates raw term counts per document. It is single-owner: call
// AddDocument in ascending DocID order from one goroutine, then Finalize.
type Builder struct {
	tokenizer tokenizer.Tokenizer
	filter    *lexicon.Filter
	opts      Options
	metrics   *metrics.Metrics
	logger    *slog.Logger

	terms       map[string]*index.PostingList
	docStats    map[index.DocID]index.DocStats
	totalTokens int
	finalized   bool
}

// NewBuilder creates an empty builder. m may be nil.
func NewBuilder(tok tokenizer.Tokenizer, filter *lexicon.Filter, opts Options, m *metrics.Metrics) *Builder {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.DocumentFrequency == "" {
		opts.DocumentFrequency = config.DocFreqDistinct
	}
	return &Builder{
		tokenizer: tok,
		filter:    filter,
		opts:      opts,
		metrics:   m,
		logger:    slog.Default().With("component", "indexer"),
		terms:     make(map[string]*index.PostingList),
		docStats:  make(map[index.DocID]index.DocStats),
	}
}

// AddDocument tokenizes and filters text and records every surviving token
// against doc.
func (b *Builder) AddDocument(doc index.DocID, text string) error {
	if b.finalized {
		return ErrBuilderFinalized
	}
	return b.record(doc, b.tokenizer.Tokenize(text))
}

func (b *Builder) record(doc index.DocID, raw []string) error {
	if b.finalized {
		return ErrBuilderFinalized
	}
	if _, dup := b.docStats[doc]; dup {
		return fmt.Errorf("%w: %d", apperrors.ErrDuplicateDocument, doc)
	}

	kept := b.filter.Apply(raw)
	legacy := b.opts.DocumentFrequency == config.DocFreqLegacy
	seen := make(map[string]struct{}, len(kept))
	for _, term := range kept {
		list, ok := b.terms[term]
		if !ok {
			b.terms[term] = index.NewPostingList(doc)
			seen[term] = struct{}{}
			continue
		}
		_, already := seen[term]
		list.RecordOccurrence(doc, legacy || !already)
		seen[term] = struct{}{}
	}

	b.docStats[doc] = index.DocStats{DocID: doc, RawTokens: len(raw), IndexedTokens: len(kept)}
	b.totalTokens += len(kept)
	if b.metrics != nil {
		b.metrics.DocsIndexedTotal.Inc()
	}
	b.logger.Debug("document indexed",
		"doc_id", uint64(doc),
		"raw_tokens", len(raw),
		"indexed_tokens", len(kept),
		"distinct_terms", len(seen),
	)
	return nil
}

// Finalize normalizes every posting list exactly once and hands the index
// off. The builder cannot be used afterwards.
func (b *Builder) Finalize() (*index.Index, error) {
	if b.finalized {
		return nil, ErrBuilderFinalized
	}
	for term, list := range b.terms {
		if err := list.Normalize(); err != nil {
			return nil, fmt.Errorf("normalizing %q: %w", term, err)
		}
	}
	b.finalized = true

	idx := index.Freeze(b.terms, b.docStats, b.filter.Stopwords(), b.totalTokens)
	b.terms = nil
	b.docStats = nil

	stats := idx.Stats()
	if b.metrics != nil {
		b.metrics.IndexTerms.Set(float64(stats.Terms))
		b.metrics.IndexTotalTokens.Set(float64(stats.TotalTokens))
	}
	b.logger.Info("index finalized",
		"documents", stats.Documents,
		"terms", stats.Terms,
		"postings", stats.Postings,
		"total_tokens", stats.TotalTokens,
		"fingerprint", fmt.Sprintf("%08x", stats.Fingerprint),
		"document_frequency", b.opts.DocumentFrequency,
	)
	return idx, nil
}

// Build reads and tokenizes the whole corpus with bounded parallelism, then
// accumulates documents in ascending DocID order and finalizes. Any document
// failure aborts the build.
func (b *Builder) Build(ctx context.Context, src corpus.Source) (*index.Index, error) {
	start := time.Now()
	refs, err := src.List(ctx)
	if err != nil {
		return nil, err
	}
	b.logger.Info("building index", "documents", len(refs), "workers", b.opts.Workers, "tokenizer", b.tokenizer.Name())

	tokens := make([][]string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for i, ref := range refs {
		g.Go(func() error {
			text, err := src.Read(gctx, ref)
			if err != nil {
				return err
			}
			tokens[i] = b.tokenizer.Tokenize(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.record(ref.ID, tokens[i]); err != nil {
			return nil, fmt.Errorf("indexing %s: %w", ref.Name, err)
		}
		tokens[i] = nil
	}

	idx, err := b.Finalize()
	if err != nil {
		return nil, err
	}
	if b.metrics != nil {
		b.metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())
	}
	b.logger.Info("index built", "duration", time.Since(start).Round(time.Millisecond).String())
	return idx, nil
}
