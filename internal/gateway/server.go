package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ragworks/ragchat/internal/config"
	"github.com/ragworks/ragchat/internal/log"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the edge HTTP server. Its own /health answers locally; every
// other path runs through the pipeline to the storage tier.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer wires the pipeline and forwarder from configuration.
func NewServer(cfg *config.Config, logger log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	forwarder, err := NewForwarder(cfg.StorageURL, logger)
	if err != nil {
		return nil, err
	}
	pipeline := NewPipeline(cfg.Credentials(), cfg.PublicPrefixes, forwarder, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","service":"gateway"}`))
	})
	mux.Handle("/", pipeline)

	return &Server{mux: mux, logger: logger}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: ReadHeaderTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting gateway server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
