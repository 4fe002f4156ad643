// Package app wires configuration into a built index and the services that
// query it. Every command of the vsm binary starts from Bootstrap.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/dump"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/lexicon"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/resilience"
)

const (
	analyticsBatchSize     = 100
	analyticsFlushInterval = time.Second
)

// App holds the built index and everything serving it. Cache is nil when
// Redis is disabled or unreachable.
type App struct {
	Config     *config.Config
	Metrics    *metrics.Metrics
	Index      *index.Index
	Executor   *executor.Executor
	Cache      *cache.QueryCache
	Aggregator *analytics.Aggregator
	Tracker    analytics.Tracker
	Health     *health.Checker

	closers []func() error
	logger  *slog.Logger
}

// Bootstrap loads the lexicon, builds the index from the configured corpus
// and starts the optional cache and analytics pipeline. A failed build is
// returned as an error; optional services that fail to connect are logged
// and skipped.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:     cfg,
		Metrics:    metrics.New(),
		Aggregator: analytics.NewAggregator(),
		Health:     health.NewChecker(),
		logger:     slog.Default().With("component", "app"),
	}

	filter, err := lexicon.Load(cfg.Lexicon.StopwordsFile, cfg.Lexicon.PunctuationFile)
	if err != nil {
		return nil, fmt.Errorf("loading lexicon: %w", err)
	}
	tok, err := tokenizer.New(cfg.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("creating tokenizer: %w", err)
	}

	src, err := a.openCorpus(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	idx, err := indexer.NewBuilder(tok, filter, indexer.OptionsFromConfig(cfg.Indexer), a.Metrics).Build(ctx, src)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("building index: %w", err)
	}
	a.Index = idx

	if cfg.Debug.DumpPath != "" {
		if err := dump.NewWriter(cfg.Debug.DumpPath).Write(idx); err != nil {
			a.logger.Warn("index dump failed", "path", cfg.Debug.DumpPath, "error", err)
		}
	}

	a.Executor = executor.New(idx, parser.New(tok, filter), a.Metrics, cfg.Search.TopK)
	a.Health.Register("index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", idx.DocumentCount(), len(idx.Terms())),
		}
	})

	a.startCache(ctx)
	a.startAnalytics(ctx)
	return a, nil
}

func (a *App) openCorpus(ctx context.Context) (corpus.Source, error) {
	cfg := a.Config
	switch cfg.Corpus.Driver {
	case config.CorpusDriverPostgres:
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connecting to corpus database: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		// The corpus is fully read at build time; later outages only degrade.
		a.Health.Register("postgres", health.PingCheck(client, true))
		a.logger.Info("reading corpus from postgres", "table", cfg.Corpus.Table)
		return corpus.NewPostgresSource(client, cfg.Corpus.Table), nil
	default:
		a.logger.Info("reading corpus from directory", "dir", cfg.Corpus.Dir)
		return corpus.NewDirSource(cfg.Corpus.Dir), nil
	}
}

func (a *App) startCache(ctx context.Context) {
	cfg := a.Config.Redis
	if !cfg.Enabled {
		return
	}
	client, err := pkgredis.NewClient(ctx, cfg)
	if err != nil {
		a.logger.Warn("redis unavailable, search caching disabled", "error", err)
		a.Health.Register("redis", func(context.Context) health.ComponentHealth {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not connected"}
		})
		return
	}
	a.closers = append(a.closers, client.Close)
	a.Cache = cache.New(client, cfg.CacheTTL, a.Index.Fingerprint(), a.Metrics)
	a.Health.Register("redis", health.PingCheck(client, true))
	a.logger.Info("search cache enabled", "addr", cfg.Addr, "ttl", cfg.CacheTTL)
}

func (a *App) startAnalytics(ctx context.Context) {
	cfg := a.Config.Kafka
	if !cfg.Enabled {
		a.Tracker = a.Aggregator
		return
	}
	producer := kafka.NewProducer(cfg)
	collector := analytics.NewCollector(producer, cfg.EventBufferSize, analyticsBatchSize, analyticsFlushInterval, a.Metrics)
	collector.Start(ctx)
	a.closers = append(a.closers, func() error {
		collector.Close()
		return producer.Close()
	})
	a.Tracker = analytics.Tee(a.Aggregator, collector)
	a.logger.Info("analytics publishing enabled", "topic", cfg.AnalyticsTopic, "brokers", cfg.Brokers)
}

// Search runs query under the configured per-query timeout.
func (a *App) Search(ctx context.Context, query string, limit int) (*executor.SearchResult, error) {
	return resilience.WithTimeout(ctx, a.Config.Search.QueryTimeout, "search", func(ctx context.Context) (*executor.SearchResult, error) {
		return a.Executor.Search(ctx, query, limit)
	})
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
