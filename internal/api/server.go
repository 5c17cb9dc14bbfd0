// Package api exposes the chat storage tier over HTTP.
//
// Every /api/v1 route sits behind the internal-key guard; health probes and
// the static docs listing are public. Handlers translate store errors into a
// uniform JSON error envelope.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragworks/ragchat/internal/log"
	"github.com/ragworks/ragchat/internal/store"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout = 60 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// ServerConfig contains the dependencies of the storage API server.
type ServerConfig struct {
	Logger         log.Logger
	Sessions       *store.SessionStore // Required
	Messages       *store.MessageStore // Required
	Pool           *pgxpool.Pool       // Optional: nil disables the /ready database ping
	InternalKey    string              // Required: shared service-to-service secret
	PublicPrefixes []string            // Paths that bypass the guard
}

// Server is the HTTP server for the chat storage REST API.
type Server struct {
	mux    *http.ServeMux
	cfg    ServerConfig
	logger log.Logger
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Sessions == nil || cfg.Messages == nil {
		return nil, errors.New("session and message stores are required")
	}
	if cfg.InternalKey == "" {
		return nil, errors.New("internal service key is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	mux := http.NewServeMux()
	NewHealthHandler(cfg.Pool, logger).RegisterRoutes(mux)
	NewSessionHandler(cfg.Sessions, logger).RegisterRoutes(mux)
	NewMessageHandler(cfg.Messages, logger).RegisterRoutes(mux)

	return &Server{mux: mux, cfg: cfg, logger: logger}, nil
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → guard → routes.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
		guardMiddleware(s.cfg.InternalKey, s.cfg.PublicPrefixes, s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting storage API server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down storage API server")
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
