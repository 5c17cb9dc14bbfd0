package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/ragworks/ragchat/internal/log"
	"github.com/ragworks/ragchat/internal/store"
)

// SessionHandler handles session-related HTTP endpoints.
type SessionHandler struct {
	sessions *store.SessionStore
	logger   log.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *store.SessionStore, logger log.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/sessions", h.create)
	mux.HandleFunc("GET /api/v1/sessions", h.listByOwner)
	mux.HandleFunc("GET /api/v1/sessions/all", h.listAll)
	mux.HandleFunc("GET /api/v1/sessions/{id}", h.get)
	mux.HandleFunc("PATCH /api/v1/sessions/{id}/rename", h.rename)
	mux.HandleFunc("PATCH /api/v1/sessions/{id}/favorite", h.setFavorite)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", h.delete)
}

// sessionID parses the {id} path value. Writes a 404 and returns false when
// the value is not a UUID, matching the behavior for ids that parse but do
// not exist.
func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found", nil)
		return uuid.Nil, false
	}
	return id, true
}

// CreateSessionRequest is the request body for creating a session.
type CreateSessionRequest struct {
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
}

// create handles POST /api/v1/sessions.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	sess, err := h.sessions.Create(r.Context(), req.OwnerID, req.Title)
	if err != nil {
		writeStoreError(w, h.logger, "creating session", err)
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

// listByOwner handles GET /api/v1/sessions?owner={owner_id}.
func (h *SessionHandler) listByOwner(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListByOwner(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		writeStoreError(w, h.logger, "listing sessions by owner", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// listAll handles GET /api/v1/sessions/all.
func (h *SessionHandler) listAll(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListAll(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "listing sessions", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// get handles GET /api/v1/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, "getting session", err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// RenameSessionRequest is the request body for renaming a session.
type RenameSessionRequest struct {
	Title string `json:"title"`
}

// rename handles PATCH /api/v1/sessions/{id}/rename.
func (h *SessionHandler) rename(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req RenameSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	sess, err := h.sessions.Rename(r.Context(), id, req.Title)
	if err != nil {
		writeStoreError(w, h.logger, "renaming session", err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// FavoriteSessionRequest is the request body for the favorite flag.
type FavoriteSessionRequest struct {
	Favorite bool `json:"favorite"`
}

// setFavorite handles PATCH /api/v1/sessions/{id}/favorite.
func (h *SessionHandler) setFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req FavoriteSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	sess, err := h.sessions.ToggleFavorite(r.Context(), id, req.Favorite)
	if err != nil {
		writeStoreError(w, h.logger, "setting session favorite", err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// delete handles DELETE /api/v1/sessions/{id}. Removes the session and all
// of its messages in one transaction.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Delete(r.Context(), id); err != nil {
		writeStoreError(w, h.logger, "deleting session", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
