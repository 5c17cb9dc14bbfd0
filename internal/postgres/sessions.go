package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const sessionColumns = "id, owner_id, title, favorite, created_at, updated_at"

const createSession = `
INSERT INTO chat_sessions (owner_id, title)
VALUES ($1, $2)
RETURNING ` + sessionColumns

// CreateSessionParams holds the caller-supplied session fields.
type CreateSessionParams struct {
	OwnerID string
	Title   string
}

// CreateSession inserts a new session; id and both timestamps are assigned
// by the database.
func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRow(ctx, createSession, arg.OwnerID, arg.Title)
	return scanSession(row)
}

const getSession = `
SELECT ` + sessionColumns + `
FROM chat_sessions
WHERE id = $1`

// GetSession returns the session or pgx.ErrNoRows.
func (q *Queries) GetSession(ctx context.Context, id pgtype.UUID) (Session, error) {
	row := q.db.QueryRow(ctx, getSession, id)
	return scanSession(row)
}

const lockSession = `
SELECT id
FROM chat_sessions
WHERE id = $1
FOR UPDATE`

// LockSession acquires a row lock on the session for the duration of the
// surrounding transaction. Returns pgx.ErrNoRows if the session is absent,
// which turns the existence check and the follow-up write into one atomic
// step against concurrent deleters.
func (q *Queries) LockSession(ctx context.Context, id pgtype.UUID) (pgtype.UUID, error) {
	var locked pgtype.UUID
	err := q.db.QueryRow(ctx, lockSession, id).Scan(&locked)
	return locked, err
}

const listSessionsByOwner = `
SELECT ` + sessionColumns + `
FROM chat_sessions
WHERE owner_id = $1
ORDER BY updated_at DESC`

// ListSessionsByOwner returns the owner's sessions, most recently updated first.
func (q *Queries) ListSessionsByOwner(ctx context.Context, ownerID string) ([]Session, error) {
	rows, err := q.db.Query(ctx, listSessionsByOwner, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

const listSessions = `
SELECT ` + sessionColumns + `
FROM chat_sessions
ORDER BY updated_at DESC`

// ListSessions returns all sessions, most recently updated first.
func (q *Queries) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := q.db.Query(ctx, listSessions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

const renameSession = `
UPDATE chat_sessions
SET title = $2, updated_at = now()
WHERE id = $1
RETURNING ` + sessionColumns

// RenameSessionParams identifies the session and its new title.
type RenameSessionParams struct {
	ID    pgtype.UUID
	Title string
}

// RenameSession replaces the title and refreshes updated_at.
// Returns pgx.ErrNoRows if the session is absent.
func (q *Queries) RenameSession(ctx context.Context, arg RenameSessionParams) (Session, error) {
	row := q.db.QueryRow(ctx, renameSession, arg.ID, arg.Title)
	return scanSession(row)
}

const setSessionFavorite = `
UPDATE chat_sessions
SET favorite = $2, updated_at = now()
WHERE id = $1
RETURNING ` + sessionColumns

// SetSessionFavoriteParams identifies the session and the new flag value.
type SetSessionFavoriteParams struct {
	ID       pgtype.UUID
	Favorite bool
}

// SetSessionFavorite sets the favorite flag and refreshes updated_at.
// Returns pgx.ErrNoRows if the session is absent.
func (q *Queries) SetSessionFavorite(ctx context.Context, arg SetSessionFavoriteParams) (Session, error) {
	row := q.db.QueryRow(ctx, setSessionFavorite, arg.ID, arg.Favorite)
	return scanSession(row)
}

const touchSession = `
UPDATE chat_sessions
SET updated_at = now()
WHERE id = $1`

// TouchSession refreshes the session's updated_at timestamp.
func (q *Queries) TouchSession(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, touchSession, id)
	return err
}

const deleteSession = `
DELETE FROM chat_sessions
WHERE id = $1`

// DeleteSession removes the session row only. Owned messages must already be
// gone (see DeleteSessionMessages) or the foreign key rejects the delete.
func (q *Queries) DeleteSession(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteSession, id)
	return err
}

func scanSession(row interface{ Scan(dest ...any) error }) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.OwnerID, &s.Title, &s.Favorite, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func scanSessions(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Session, error) {
	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
