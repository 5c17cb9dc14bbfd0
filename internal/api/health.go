package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragworks/ragchat/internal/log"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewHealthHandler creates a new health handler.
// pool is the database connection pool used for readiness checks.
func NewHealthHandler(pool *pgxpool.Pool, logger log.Logger) *HealthHandler {
	return &HealthHandler{pool: pool, logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
	mux.HandleFunc("GET /docs", h.docs)
}

// liveness is a liveness probe endpoint.
// Returns 200 OK if the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readiness is a readiness probe endpoint.
// Performs an actual health check by pinging the database.
func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		writeError(w, http.StatusServiceUnavailable, "database pool not configured", nil)
		return
	}
	if err := h.pool.Ping(r.Context()); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "database not ready", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// docs returns a static listing of the API surface.
func (h *HealthHandler) docs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "ragchat storage",
		"endpoints": []string{
			"POST   /api/v1/sessions",
			"GET    /api/v1/sessions?owner={owner_id}",
			"GET    /api/v1/sessions/all",
			"GET    /api/v1/sessions/{id}",
			"PATCH  /api/v1/sessions/{id}/rename",
			"PATCH  /api/v1/sessions/{id}/favorite",
			"DELETE /api/v1/sessions/{id}",
			"POST   /api/v1/sessions/{id}/messages",
			"GET    /api/v1/sessions/{id}/messages?page={page}&size={size}",
		},
	})
}
