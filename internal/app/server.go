package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/middleware"
)

// NewHTTPServer mounts the search, analytics, health and metrics endpoints
// behind the middleware chain. The server is not started.
func (a *App) NewHTTPServer() *http.Server {
	cfg := a.Config

	h := handler.New(a.Executor, a.Cache, a.Tracker, cfg.Search.TopK, cfg.Search.MaxResults).
		WithAggregator(a.Aggregator)
	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", a.Health.LiveHandler())
	mux.HandleFunc("GET /health/ready", a.Health.ReadyHandler())
	mux.Handle("GET /metrics", a.Metrics.Handler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Search.QueryTimeout)(chain)
	if cfg.Server.RateLimitPerMinute > 0 {
		trusted, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
		if err != nil {
			a.logger.Warn("ignoring trusted proxies", "error", err)
		}
		chain = middleware.RateLimit(middleware.NewLimiter(cfg.Server.RateLimitPerMinute, time.Minute), trusted)(chain)
	}
	chain = middleware.CORS(cfg.Server.CORSOrigins)(chain)
	chain = middleware.Metrics(a.Metrics)(chain)
	chain = middleware.Logging(chain)
	chain = middleware.RequestID(chain)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// Serve runs the HTTP API until ctx is cancelled, then drains in-flight
// requests within the shutdown timeout. It returns only after the drain.
func (a *App) Serve(ctx context.Context) error {
	server := a.NewHTTPServer()
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return a.serve(ctx, server, ln)
}

func (a *App) serve(ctx context.Context, server *http.Server, ln net.Listener) error {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		a.logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown error", "error", err)
		}
	}()

	a.logger.Info("search service listening", "addr", ln.Addr().String())
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	<-stopped
	a.logger.Info("search service stopped")
	return nil
}
