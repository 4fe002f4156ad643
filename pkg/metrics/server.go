package metrics

import (
	"fmt"
	"net/http"
	"time"
)

// NewServer returns an unstarted server that exposes only GET /metrics on
// port. The serve command mounts the same handler on its API mux instead.
func (m *Metrics) NewServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
