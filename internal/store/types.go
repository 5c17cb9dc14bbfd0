package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ragworks/ragchat/internal/postgres"
)

// Session is a named conversation thread owned by a caller-supplied
// identifier. The owner id is opaque to the store: it is not validated
// against any identity system.
type Session struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Favorite  bool      `json:"favorite"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single conversation turn bound to exactly one session.
// Context is an opaque caller-defined blob, stored verbatim and never parsed.
type Message struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Context   *string   `json:"context,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MessagePage is one page of a session's messages plus the totals clients
// need for pagination. Page is zero-based.
type MessagePage struct {
	Messages   []*Message `json:"messages"`
	Page       int        `json:"page"`
	Size       int        `json:"size"`
	TotalCount int64      `json:"total_count"`
	TotalPages int64      `json:"total_pages"`
}

// uuidToPgUUID converts uuid.UUID to pgtype.UUID.
func uuidToPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{
		Bytes: id,
		Valid: true,
	}
}

// pgUUIDToUUID converts pgtype.UUID to uuid.UUID.
func pgUUIDToUUID(pgUUID pgtype.UUID) uuid.UUID {
	if !pgUUID.Valid {
		return uuid.Nil
	}
	return pgUUID.Bytes
}

// rowToSession converts a postgres.Session row to the application type.
func rowToSession(row postgres.Session) *Session {
	return &Session{
		ID:        pgUUIDToUUID(row.ID),
		OwnerID:   row.OwnerID,
		Title:     row.Title,
		Favorite:  row.Favorite,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

// rowToMessage converts a postgres.Message row to the application type.
func rowToMessage(row postgres.Message) *Message {
	return &Message{
		ID:        pgUUIDToUUID(row.ID),
		SessionID: pgUUIDToUUID(row.SessionID),
		Sender:    row.Sender,
		Content:   row.Content,
		Context:   row.Context,
		CreatedAt: row.CreatedAt.Time,
	}
}
