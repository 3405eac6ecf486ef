package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server exposes the registered collectors on /metrics and a trivial
// liveness check on /health, with NewServer/StartAsync/Stop lifecycle
// methods and zap-based logging.
type Server struct {
	server *http.Server
	log    *zap.Logger
}

// NewServer builds a Server bound to ":"+port. It does not start listening
// until StartAsync is called.
func NewServer(port string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    ":" + port,
			Handler: mux,
		},
		log: log,
	}
}

// StartAsync starts the HTTP server in a background goroutine. Errors other
// than http.ErrServerClosed are logged, not returned, since the caller has
// no synchronous way to observe a bind failure from a background listener.
func (s *Server) StartAsync() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts the server down, bounded by ctx.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
