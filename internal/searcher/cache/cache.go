package cache

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_store.go -package=mocks github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/cache Store

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/resilience"
)

const keyPrefix = "vsm:search:"

// Store is the key-value backend. *redis.Client from pkg/redis satisfies it.
type Store interface {
	// Lookup returns the value at key and whether it was present.
	Lookup(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// QueryCache caches search results keyed by the index fingerprint, the
// normalized query text and the limit, so results from a different build
// are never served. Store calls go through a circuit breaker so an
// unreachable backend is skipped instead of slowing every query.
type QueryCache struct {
	store       Store
	breaker     *resilience.Breaker
	ttl         time.Duration
	fingerprint uint32
	group       singleflight.Group
	metrics     *metrics.Metrics
	logger      *slog.Logger
	hits        atomic.Int64
	misses      atomic.Int64
}

// New creates a cache bound to one index build. m may be nil.
func New(store Store, ttl time.Duration, fingerprint uint32, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:       store,
		breaker:     resilience.NewBreaker("query-cache", resilience.BreakerConfig{}),
		ttl:         ttl,
		fingerprint: fingerprint,
		metrics:     m,
		logger:      slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, query string, limit int) (*executor.SearchResult, bool) {
	key := c.buildKey(query, limit)
	var data string
	var found bool
	err := c.breaker.Do(func() error {
		var err error
		data, found, err = c.store.Lookup(ctx, key)
		return err
	})
	if err != nil {
		c.logFailure("cache get failed", key, err)
		c.miss()
		return nil, false
	}
	if !found {
		c.miss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "query", query, "key", key)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, query string, limit int, result *executor.SearchResult) {
	key := c.buildKey(query, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Do(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.logFailure("cache set failed", key, err)
	}
}

// GetOrCompute returns the cached result or runs computeFn once per key
// across concurrent callers and stores its result. Store failures degrade to
// computing; they are never returned.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	limit int,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	start := time.Now()
	if result, ok := c.Get(ctx, query, limit); ok {
		if c.metrics != nil {
			c.metrics.SearchLatency.WithLabelValues("hit").Observe(time.Since(start).Seconds())
		}
		return result, true, nil
	}
	key := c.buildKey(query, limit)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate removes every cached result, for every index build.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// logFailure keeps an open circuit out of the error log.
func (c *QueryCache) logFailure(msg, key string, err error) {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Debug(msg, "key", key, "error", err)
		return
	}
	c.logger.Error(msg, "key", key, "error", err)
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *QueryCache) buildKey(query string, limit int) string {
	raw := fmt.Sprintf("%s:limit=%d", normalizeQuery(query), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%08x:%x", keyPrefix, c.fingerprint, hash[:16])
}

// normalizeQuery lowercases and collapses whitespace. Word order is kept:
// the cached result echoes the query text.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
