package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/health"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "stopwords.txt"), "the\na\n")
	writeFile(t, filepath.Join(root, "docs", "1.txt"), "the cat sat")
	writeFile(t, filepath.Join(root, "docs", "2.txt"), "the dog sat")
	writeFile(t, filepath.Join(root, "docs", "3.md"), "# Cat\n\ncat dog")

	return &config.Config{
		Corpus:    config.CorpusConfig{Driver: config.CorpusDriverDir, Dir: filepath.Join(root, "docs")},
		Lexicon:   config.LexiconConfig{StopwordsFile: filepath.Join(root, "stopwords.txt")},
		Tokenizer: config.TokenizerConfig{Strategy: config.TokenizerWhitespace},
		Indexer:   config.IndexerConfig{Workers: 2, DocumentFrequency: config.DocFreqDistinct},
		Search:    config.SearchConfig{TopK: 10, MaxResults: 100, QueryTimeout: time.Second},
	}
}

func TestBootstrap(t *testing.T) {
	cfg := testConfig(t)
	cfg.Debug.DumpPath = filepath.Join(t.TempDir(), "index.txt")

	a, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 3, a.Index.DocumentCount())
	assert.Nil(t, a.Cache)
	assert.Same(t, a.Aggregator, a.Tracker)

	result, err := a.Search(context.Background(), "cat dog", 0)
	require.NoError(t, err)
	require.Len(t, result.Results, 3)
	assert.Equal(t, index.DocID(3), result.Results[0].DocID)

	dumped, err := os.ReadFile(cfg.Debug.DumpPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(dumped), "# documents=3 "))

	report := a.Health.Run(context.Background())
	assert.Equal(t, health.StatusUp, report.Status)
	assert.Contains(t, report.Components, "index")
}

func TestBootstrapMissingCorpus(t *testing.T) {
	cfg := testConfig(t)
	cfg.Corpus.Dir = filepath.Join(t.TempDir(), "absent")

	_, err := Bootstrap(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "building index")
}

func TestBootstrapMissingStopwords(t *testing.T) {
	cfg := testConfig(t)
	cfg.Lexicon.StopwordsFile = filepath.Join(t.TempDir(), "absent.txt")

	_, err := Bootstrap(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading lexicon")
}

func TestBootstrapRedisUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis = config.RedisConfig{Enabled: true, Addr: "127.0.0.1:1", CacheTTL: time.Minute}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a, err := Bootstrap(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Cache)
	report := a.Health.Run(context.Background())
	assert.Equal(t, health.StatusDegraded, report.Status)
}

func TestSearchTimeout(t *testing.T) {
	a, err := Bootstrap(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Search(ctx, "cat", 0)
	require.Error(t, err)
}

func TestHTTPServerRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.RateLimitPerMinute = 1
	a, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	handler := a.NewHTTPServer().Handler
	do := func(path string) int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, do("/api/v1/search?q=cat"))
	assert.Equal(t, http.StatusTooManyRequests, do("/api/v1/search?q=cat"))
	assert.Equal(t, http.StatusOK, do("/health/live"))
}

func TestServeDrainsInFlightRequests(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.ShutdownTimeout = 5 * time.Second
	a, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	entered := make(chan struct{})
	var finished atomic.Bool
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		time.Sleep(200 * time.Millisecond)
		finished.Store(true)
		w.WriteHeader(http.StatusOK)
	})}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- a.serve(ctx, server, ln) }()

	responded := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/slow")
		if err != nil {
			responded <- 0
			return
		}
		resp.Body.Close()
		responded <- resp.StatusCode
	}()

	<-entered
	cancel()
	require.NoError(t, <-served)
	assert.True(t, finished.Load(), "serve returned before the in-flight request finished")
	assert.Equal(t, http.StatusOK, <-responded)
}
