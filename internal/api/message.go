package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/ragworks/ragchat/internal/log"
	"github.com/ragworks/ragchat/internal/store"
)

// MessageHandler handles message-related HTTP endpoints.
type MessageHandler struct {
	messages *store.MessageStore
	logger   log.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(messages *store.MessageStore, logger log.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

// RegisterRoutes registers message routes on the given mux.
func (h *MessageHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/sessions/{id}/messages", h.append)
	mux.HandleFunc("GET /api/v1/sessions/{id}/messages", h.list)
}

// AppendMessageRequest is the request body for appending a message. Context
// is an optional opaque blob (retrieval metadata serialized by the caller).
type AppendMessageRequest struct {
	Sender  string  `json:"sender"`
	Content string  `json:"content"`
	Context *string `json:"context,omitempty"`
}

// append handles POST /api/v1/sessions/{id}/messages.
func (h *MessageHandler) append(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found", nil)
		return
	}

	var req AppendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	msg, err := h.messages.Append(r.Context(), id, req.Sender, req.Content, req.Context)
	if err != nil {
		writeStoreError(w, h.logger, "appending message", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// list handles GET /api/v1/sessions/{id}/messages?page={page}&size={size}.
// page is zero-based; size defaults when absent and is capped by the store.
func (h *MessageHandler) list(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found", nil)
		return
	}

	page, ok := queryInt(w, r, "page", 0)
	if !ok {
		return
	}
	size, ok := queryInt(w, r, "size", store.DefaultPageSize)
	if !ok {
		return
	}

	result, err := h.messages.ListPage(r.Context(), id, page, size)
	if err != nil {
		writeStoreError(w, h.logger, "listing messages", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// queryInt parses an integer query parameter, falling back to defaultVal
// when absent. Non-numeric values are a 400, not a silent default.
func queryInt(w http.ResponseWriter, r *http.Request, name string, defaultVal int) (int, bool) {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal, true
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", map[string]string{
			name: "must be an integer",
		})
		return 0, false
	}
	return val, true
}
