package postgres

import "github.com/jackc/pgx/v5/pgtype"

// Session mirrors a chat_sessions row.
type Session struct {
	ID        pgtype.UUID
	OwnerID   string
	Title     string
	Favorite  bool
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// Message mirrors a chat_messages row. Context is nullable.
type Message struct {
	ID        pgtype.UUID
	SessionID pgtype.UUID
	Sender    string
	Content   string
	Context   *string
	CreatedAt pgtype.Timestamptz
}
