package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ragworks/ragchat/internal/log"
	"github.com/ragworks/ragchat/internal/store"
)

// ErrorResponse is the JSON error envelope returned by every failing
// endpoint. Details carries per-field validation messages and is omitted
// otherwise.
type ErrorResponse struct {
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
// Note: If encoding fails after WriteHeader is called, there's no way to
// notify the client since the status code is already sent. The error is
// logged for debugging but doesn't affect the response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes the error envelope.
func writeError(w http.ResponseWriter, status int, message string, details map[string]string) {
	writeJSON(w, status, ErrorResponse{
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Timestamp: time.Now().UTC(),
		Details:   details,
	})
}

// writeStoreError maps store errors onto HTTP statuses. Unclassified errors
// become a generic 500; the detail stays in the server log only.
func writeStoreError(w http.ResponseWriter, logger log.Logger, op string, err error) {
	var vErr *store.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "validation failed", vErr.Fields)
	case errors.Is(err, store.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found", nil)
	case errors.Is(err, store.ErrIntegrityViolation):
		writeError(w, http.StatusConflict, "conflicting state", nil)
	default:
		logger.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error", nil)
	}
}
