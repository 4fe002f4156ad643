package app

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/dump"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/mcptool"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/repl"
)

// RunREPL answers queries read from in until the user quits.
func (a *App) RunREPL(ctx context.Context, in io.Reader, out io.Writer) error {
	stop := a.startMetricsServer()
	defer stop()
	return repl.New(a, a.Tracker, a.Config.Search.TopK, in, out).Run(ctx)
}

// ServeMCP exposes the search tool over stdio.
func (a *App) ServeMCP(ctx context.Context, version string) error {
	stop := a.startMetricsServer()
	defer stop()
	handler := mcptool.NewSearchHandler(a, a.Tracker, a.Config.Search.TopK, a.Config.Search.MaxResults)
	a.logger.Info("serving mcp over stdio", "tool", mcptool.ToolName)
	return mcptool.ServeStdio(ctx, mcptool.NewServer(handler, version))
}

// Dump writes the normalized index to path, or to out when path is empty.
func (a *App) Dump(path string, out io.Writer) error {
	if path == "" {
		return dump.Encode(out, a.Index)
	}
	if err := dump.NewWriter(path).Write(a.Index); err != nil {
		return err
	}
	a.logger.Info("index dumped", "path", path)
	return nil
}

// startMetricsServer exposes /metrics for the stdio commands and returns
// the func that stops it.
func (a *App) startMetricsServer() func() {
	if !a.Config.Metrics.Enabled {
		return func() {}
	}
	server := a.Metrics.NewServer(a.Config.Metrics.Port)
	go func() {
		a.logger.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			a.logger.Error("metrics server shutdown error", "error", err)
		}
	}
}
