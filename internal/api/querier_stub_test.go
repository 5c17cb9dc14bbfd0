package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ragworks/ragchat/internal/postgres"
)

// stubQuerier is an in-memory store.Querier backing the handler tests. It
// keeps sessions and messages in maps so handlers exercise real store logic
// without a database.
type stubQuerier struct {
	sessions map[uuid.UUID]postgres.Session
	messages map[uuid.UUID][]postgres.Message
	failWith error
}

func newStubQuerier() *stubQuerier {
	return &stubQuerier{
		sessions: make(map[uuid.UUID]postgres.Session),
		messages: make(map[uuid.UUID][]postgres.Message),
	}
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func (q *stubQuerier) addSession(ownerID, title string) uuid.UUID {
	id := uuid.New()
	now := time.Now()
	q.sessions[id] = postgres.Session{
		ID:        pgUUID(id),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: pgtype.Timestamptz{Time: now, Valid: true},
		UpdatedAt: pgtype.Timestamptz{Time: now, Valid: true},
	}
	return id
}

func (q *stubQuerier) CreateSession(_ context.Context, arg postgres.CreateSessionParams) (postgres.Session, error) {
	if q.failWith != nil {
		return postgres.Session{}, q.failWith
	}
	id := q.addSession(arg.OwnerID, arg.Title)
	return q.sessions[id], nil
}

func (q *stubQuerier) GetSession(_ context.Context, id pgtype.UUID) (postgres.Session, error) {
	if q.failWith != nil {
		return postgres.Session{}, q.failWith
	}
	sess, ok := q.sessions[uuid.UUID(id.Bytes)]
	if !ok {
		return postgres.Session{}, pgx.ErrNoRows
	}
	return sess, nil
}

func (q *stubQuerier) LockSession(_ context.Context, id pgtype.UUID) (pgtype.UUID, error) {
	if _, ok := q.sessions[uuid.UUID(id.Bytes)]; !ok {
		return pgtype.UUID{}, pgx.ErrNoRows
	}
	return id, nil
}

func (q *stubQuerier) ListSessionsByOwner(_ context.Context, ownerID string) ([]postgres.Session, error) {
	var out []postgres.Session
	for _, sess := range q.sessions {
		if sess.OwnerID == ownerID {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (q *stubQuerier) ListSessions(_ context.Context) ([]postgres.Session, error) {
	var out []postgres.Session
	for _, sess := range q.sessions {
		out = append(out, sess)
	}
	return out, nil
}

func (q *stubQuerier) RenameSession(_ context.Context, arg postgres.RenameSessionParams) (postgres.Session, error) {
	id := uuid.UUID(arg.ID.Bytes)
	sess, ok := q.sessions[id]
	if !ok {
		return postgres.Session{}, pgx.ErrNoRows
	}
	sess.Title = arg.Title
	sess.UpdatedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	q.sessions[id] = sess
	return sess, nil
}

func (q *stubQuerier) SetSessionFavorite(_ context.Context, arg postgres.SetSessionFavoriteParams) (postgres.Session, error) {
	id := uuid.UUID(arg.ID.Bytes)
	sess, ok := q.sessions[id]
	if !ok {
		return postgres.Session{}, pgx.ErrNoRows
	}
	sess.Favorite = arg.Favorite
	sess.UpdatedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	q.sessions[id] = sess
	return sess, nil
}

func (q *stubQuerier) TouchSession(_ context.Context, id pgtype.UUID) error {
	sess, ok := q.sessions[uuid.UUID(id.Bytes)]
	if !ok {
		return pgx.ErrNoRows
	}
	sess.UpdatedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	q.sessions[uuid.UUID(id.Bytes)] = sess
	return nil
}

func (q *stubQuerier) DeleteSession(_ context.Context, id pgtype.UUID) error {
	delete(q.sessions, uuid.UUID(id.Bytes))
	return nil
}

func (q *stubQuerier) InsertMessage(_ context.Context, arg postgres.InsertMessageParams) (postgres.Message, error) {
	sessionID := uuid.UUID(arg.SessionID.Bytes)
	msg := postgres.Message{
		ID:        pgUUID(uuid.New()),
		SessionID: arg.SessionID,
		Sender:    arg.Sender,
		Content:   arg.Content,
		Context:   arg.Context,
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	q.messages[sessionID] = append(q.messages[sessionID], msg)
	return msg, nil
}

func (q *stubQuerier) ListMessages(_ context.Context, arg postgres.ListMessagesParams) ([]postgres.Message, error) {
	msgs := q.messages[uuid.UUID(arg.SessionID.Bytes)]
	start := int(arg.Offset)
	if start > len(msgs) {
		return nil, nil
	}
	end := start + int(arg.Limit)
	if end > len(msgs) {
		end = len(msgs)
	}
	return msgs[start:end], nil
}

func (q *stubQuerier) CountMessages(_ context.Context, sessionID pgtype.UUID) (int64, error) {
	return int64(len(q.messages[uuid.UUID(sessionID.Bytes)])), nil
}

func (q *stubQuerier) DeleteSessionMessages(_ context.Context, sessionID pgtype.UUID) (int64, error) {
	id := uuid.UUID(sessionID.Bytes)
	n := int64(len(q.messages[id]))
	delete(q.messages, id)
	return n, nil
}
