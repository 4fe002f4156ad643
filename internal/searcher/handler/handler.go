package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
)

const maxQueryLength = 1024

type SearchExecutor interface {
	Parse(query string) *parser.QueryPlan
	Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
	Index() *index.Index
}

type Handler struct {
	executor     SearchExecutor
	cache        *cache.QueryCache
	tracker      analytics.Tracker
	aggregator   *analytics.Aggregator
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New creates the HTTP handler. queryCache and tracker may be nil.
func New(exec SearchExecutor, queryCache *cache.QueryCache, tracker analytics.Tracker, defaultLimit, maxResults int) *Handler {
	return &Handler{
		executor:     exec,
		cache:        queryCache,
		tracker:      tracker,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// WithAggregator enables GET /api/v1/analytics backed by agg.
func (h *Handler) WithAggregator(agg *analytics.Aggregator) *Handler {
	h.aggregator = agg
	return h
}

// Register mounts the search API on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	if h.aggregator != nil {
		mux.HandleFunc("GET /api/v1/analytics", h.Analytics)
	}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	if len(query) > maxQueryLength {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("query exceeds %d bytes", maxQueryLength))
		return
	}

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if h.maxResults > 0 && parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}

	plan := h.executor.Parse(query)
	var result *executor.SearchResult
	var err error
	cacheHit := false

	if h.cache != nil && !plan.Empty() {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, query, limit, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, plan, limit)
		})
	} else {
		result, err = h.executor.Execute(ctx, plan, limit)
	}
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("search execution failed", "query", query, "status", status, "error", err)
		h.writeError(w, status, "search failed")
		return
	}
	if result.Query != query {
		// Shared with other singleflight callers or decoded from the cache.
		echo := *result
		echo.Query = query
		result = &echo
	}

	latencyMs := time.Since(start).Milliseconds()
	log.Info("search completed",
		"component", "search-handler",
		"query", query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)
	if h.tracker != nil {
		h.tracker.Track(analytics.QueryEvent{
			Type:            analytics.ClassifyEvent(result.Terms, len(result.Results)),
			Surface:         analytics.SurfaceHTTP,
			Query:           query,
			Terms:           result.Terms,
			OutOfVocabulary: result.OutOfVocabulary,
			TotalHits:       result.TotalHits,
			Returned:        len(result.Results),
			LatencyMs:       latencyMs,
			CacheHit:        cacheHit,
			Fingerprint:     result.Fingerprint,
			Timestamp:       time.Now().UTC(),
			RequestID:       logger.RequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	idx := h.executor.Index()
	if idx == nil {
		h.writeError(w, apperrors.HTTPStatusCode(apperrors.ErrIndexNotReady), "index not ready")
		return
	}
	h.writeJSON(w, http.StatusOK, idx.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, status, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// Analytics reports query counters aggregated since startup.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.aggregator.Stats())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
