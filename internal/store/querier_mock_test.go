package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ragworks/ragchat/internal/postgres"
)

// mockQuerier implements Querier for unit testing without a database.
type mockQuerier struct {
	// Error configuration
	createSessionErr         error
	getSessionErr            error
	lockSessionErr           error
	listByOwnerErr           error
	listSessionsErr          error
	renameSessionErr         error
	setFavoriteErr           error
	touchSessionErr          error
	deleteSessionErr         error
	insertMessageErr         error
	listMessagesErr          error
	countMessagesErr         error
	deleteSessionMessagesErr error

	// Return values
	createSessionResult postgres.Session
	getSessionResult    postgres.Session
	listByOwnerResult   []postgres.Session
	listSessionsResult  []postgres.Session
	renameSessionResult postgres.Session
	setFavoriteResult   postgres.Session
	insertMessageResult postgres.Message
	listMessagesResult  []postgres.Message
	countMessagesResult int64

	// Call tracking
	createSessionCalls         int
	getSessionCalls            int
	lockSessionCalls           int
	listByOwnerCalls           int
	listSessionsCalls          int
	renameSessionCalls         int
	setFavoriteCalls           int
	touchSessionCalls          int
	deleteSessionCalls         int
	insertMessageCalls         int
	listMessagesCalls          int
	countMessagesCalls         int
	deleteSessionMessagesCalls int

	lastCreateParams       postgres.CreateSessionParams
	lastGetSessionID       pgtype.UUID
	lastListOwnerID        string
	lastRenameParams       postgres.RenameSessionParams
	lastSetFavoriteParams  postgres.SetSessionFavoriteParams
	lastTouchSessionID     pgtype.UUID
	lastDeleteSessionID    pgtype.UUID
	lastInsertParams       postgres.InsertMessageParams
	lastListMessagesParams postgres.ListMessagesParams
	lastCountSessionID     pgtype.UUID
	lastDeleteMsgsID       pgtype.UUID
}

func (m *mockQuerier) CreateSession(_ context.Context, arg postgres.CreateSessionParams) (postgres.Session, error) {
	m.createSessionCalls++
	m.lastCreateParams = arg
	if m.createSessionErr != nil {
		return postgres.Session{}, m.createSessionErr
	}
	return m.createSessionResult, nil
}

func (m *mockQuerier) GetSession(_ context.Context, id pgtype.UUID) (postgres.Session, error) {
	m.getSessionCalls++
	m.lastGetSessionID = id
	if m.getSessionErr != nil {
		return postgres.Session{}, m.getSessionErr
	}
	return m.getSessionResult, nil
}

func (m *mockQuerier) LockSession(_ context.Context, id pgtype.UUID) (pgtype.UUID, error) {
	m.lockSessionCalls++
	if m.lockSessionErr != nil {
		return pgtype.UUID{}, m.lockSessionErr
	}
	return id, nil
}

func (m *mockQuerier) ListSessionsByOwner(_ context.Context, ownerID string) ([]postgres.Session, error) {
	m.listByOwnerCalls++
	m.lastListOwnerID = ownerID
	if m.listByOwnerErr != nil {
		return nil, m.listByOwnerErr
	}
	return m.listByOwnerResult, nil
}

func (m *mockQuerier) ListSessions(_ context.Context) ([]postgres.Session, error) {
	m.listSessionsCalls++
	if m.listSessionsErr != nil {
		return nil, m.listSessionsErr
	}
	return m.listSessionsResult, nil
}

func (m *mockQuerier) RenameSession(_ context.Context, arg postgres.RenameSessionParams) (postgres.Session, error) {
	m.renameSessionCalls++
	m.lastRenameParams = arg
	if m.renameSessionErr != nil {
		return postgres.Session{}, m.renameSessionErr
	}
	return m.renameSessionResult, nil
}

func (m *mockQuerier) SetSessionFavorite(_ context.Context, arg postgres.SetSessionFavoriteParams) (postgres.Session, error) {
	m.setFavoriteCalls++
	m.lastSetFavoriteParams = arg
	if m.setFavoriteErr != nil {
		return postgres.Session{}, m.setFavoriteErr
	}
	return m.setFavoriteResult, nil
}

func (m *mockQuerier) TouchSession(_ context.Context, id pgtype.UUID) error {
	m.touchSessionCalls++
	m.lastTouchSessionID = id
	return m.touchSessionErr
}

func (m *mockQuerier) DeleteSession(_ context.Context, id pgtype.UUID) error {
	m.deleteSessionCalls++
	m.lastDeleteSessionID = id
	return m.deleteSessionErr
}

func (m *mockQuerier) InsertMessage(_ context.Context, arg postgres.InsertMessageParams) (postgres.Message, error) {
	m.insertMessageCalls++
	m.lastInsertParams = arg
	if m.insertMessageErr != nil {
		return postgres.Message{}, m.insertMessageErr
	}
	return m.insertMessageResult, nil
}

func (m *mockQuerier) ListMessages(_ context.Context, arg postgres.ListMessagesParams) ([]postgres.Message, error) {
	m.listMessagesCalls++
	m.lastListMessagesParams = arg
	if m.listMessagesErr != nil {
		return nil, m.listMessagesErr
	}
	return m.listMessagesResult, nil
}

func (m *mockQuerier) CountMessages(_ context.Context, sessionID pgtype.UUID) (int64, error) {
	m.countMessagesCalls++
	m.lastCountSessionID = sessionID
	if m.countMessagesErr != nil {
		return 0, m.countMessagesErr
	}
	return m.countMessagesResult, nil
}

func (m *mockQuerier) DeleteSessionMessages(_ context.Context, sessionID pgtype.UUID) (int64, error) {
	m.deleteSessionMessagesCalls++
	m.lastDeleteMsgsID = sessionID
	if m.deleteSessionMessagesErr != nil {
		return 0, m.deleteSessionMessagesErr
	}
	return 0, nil
}
