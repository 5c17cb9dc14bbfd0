package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const messageColumns = "id, session_id, sender, content, context, created_at"

const insertMessage = `
INSERT INTO chat_messages (session_id, sender, content, context)
VALUES ($1, $2, $3, $4)
RETURNING ` + messageColumns

// InsertMessageParams holds the caller-supplied message fields.
// Context is stored verbatim; nil means no context blob.
type InsertMessageParams struct {
	SessionID pgtype.UUID
	Sender    string
	Content   string
	Context   *string
}

// InsertMessage appends a message; id and created_at are assigned by the
// database. The foreign key rejects inserts against a missing session.
func (q *Queries) InsertMessage(ctx context.Context, arg InsertMessageParams) (Message, error) {
	row := q.db.QueryRow(ctx, insertMessage, arg.SessionID, arg.Sender, arg.Content, arg.Context)
	var m Message
	err := row.Scan(&m.ID, &m.SessionID, &m.Sender, &m.Content, &m.Context, &m.CreatedAt)
	return m, err
}

const listMessages = `
SELECT ` + messageColumns + `
FROM chat_messages
WHERE session_id = $1
ORDER BY created_at ASC, id ASC
LIMIT $2 OFFSET $3`

// ListMessagesParams selects one page of a session's messages.
type ListMessagesParams struct {
	SessionID pgtype.UUID
	Limit     int32
	Offset    int32
}

// ListMessages returns one page ordered by creation time ascending, with the
// id as tiebreak so pagination is a stable total order.
func (q *Queries) ListMessages(ctx context.Context, arg ListMessagesParams) ([]Message, error) {
	rows, err := q.db.Query(ctx, listMessages, arg.SessionID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Sender, &m.Content, &m.Context, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

const countMessages = `
SELECT count(*)
FROM chat_messages
WHERE session_id = $1`

// CountMessages returns the session's total message count for pagination
// metadata.
func (q *Queries) CountMessages(ctx context.Context, sessionID pgtype.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countMessages, sessionID).Scan(&count)
	return count, err
}

const deleteSessionMessages = `
DELETE FROM chat_messages
WHERE session_id = $1`

// DeleteSessionMessages removes all messages owned by the session and
// reports how many were deleted.
func (q *Queries) DeleteSessionMessages(ctx context.Context, sessionID pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteSessionMessages, sessionID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
