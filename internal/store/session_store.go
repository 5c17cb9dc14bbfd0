package store

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragworks/ragchat/internal/log"
	"github.com/ragworks/ragchat/internal/postgres"
)

// Querier defines the database operations the stores consume.
// The interface lives with the consumer, not the provider, so unit tests can
// substitute a mock for *postgres.Queries.
type Querier interface {
	// Session operations
	CreateSession(ctx context.Context, arg postgres.CreateSessionParams) (postgres.Session, error)
	GetSession(ctx context.Context, id pgtype.UUID) (postgres.Session, error)
	LockSession(ctx context.Context, id pgtype.UUID) (pgtype.UUID, error)
	ListSessionsByOwner(ctx context.Context, ownerID string) ([]postgres.Session, error)
	ListSessions(ctx context.Context) ([]postgres.Session, error)
	RenameSession(ctx context.Context, arg postgres.RenameSessionParams) (postgres.Session, error)
	SetSessionFavorite(ctx context.Context, arg postgres.SetSessionFavoriteParams) (postgres.Session, error)
	TouchSession(ctx context.Context, id pgtype.UUID) error
	DeleteSession(ctx context.Context, id pgtype.UUID) error

	// Message operations
	InsertMessage(ctx context.Context, arg postgres.InsertMessageParams) (postgres.Message, error)
	ListMessages(ctx context.Context, arg postgres.ListMessagesParams) ([]postgres.Message, error)
	CountMessages(ctx context.Context, sessionID pgtype.UUID) (int64, error)
	DeleteSessionMessages(ctx context.Context, sessionID pgtype.UUID) (int64, error)
}

// SessionStore owns the session lifecycle.
type SessionStore struct {
	querier Querier
	pool    *pgxpool.Pool // transaction support; nil in unit tests with mocks
	logger  log.Logger
}

// NewSessionStore creates a SessionStore.
// pool may be nil in tests with a mock querier; the delete cascade then runs
// without a transaction, which is only acceptable under external
// synchronization.
func NewSessionStore(querier Querier, pool *pgxpool.Pool, logger log.Logger) *SessionStore {
	if logger == nil {
		logger = log.NewNop()
	}
	return &SessionStore{querier: querier, pool: pool, logger: logger}
}

// Create creates a new session with an empty message list, favorite unset,
// and both timestamps at the creation instant.
func (s *SessionStore) Create(ctx context.Context, ownerID, title string) (*Session, error) {
	if err := validateSessionInput(ownerID, title); err != nil {
		return nil, err
	}

	row, err := s.querier.CreateSession(ctx, postgres.CreateSessionParams{
		OwnerID: ownerID,
		Title:   title,
	})
	if err != nil {
		return nil, mapPgError("creating session", err)
	}

	sess := rowToSession(row)
	s.logger.Debug("created session", "id", sess.ID, "owner_id", sess.OwnerID)
	return sess, nil
}

// Get returns the session or ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	row, err := s.querier.GetSession(ctx, uuidToPgUUID(sessionID))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, mapPgError("getting session", err)
	}
	return rowToSession(row), nil
}

// Rename replaces the session's title and refreshes updated_at, so renames
// count as activity the same way favorite toggles do.
func (s *SessionStore) Rename(ctx context.Context, sessionID uuid.UUID, newTitle string) (*Session, error) {
	if err := validateTitle(newTitle); err != nil {
		return nil, err
	}

	row, err := s.querier.RenameSession(ctx, postgres.RenameSessionParams{
		ID:    uuidToPgUUID(sessionID),
		Title: newTitle,
	})
	if err != nil {
		if isNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, mapPgError("renaming session", err)
	}

	s.logger.Debug("renamed session", "id", sessionID)
	return rowToSession(row), nil
}

// ToggleFavorite sets the favorite flag and refreshes updated_at.
func (s *SessionStore) ToggleFavorite(ctx context.Context, sessionID uuid.UUID, favorite bool) (*Session, error) {
	row, err := s.querier.SetSessionFavorite(ctx, postgres.SetSessionFavoriteParams{
		ID:       uuidToPgUUID(sessionID),
		Favorite: favorite,
	})
	if err != nil {
		if isNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, mapPgError("toggling favorite", err)
	}

	s.logger.Debug("updated favorite flag", "id", sessionID, "favorite", favorite)
	return rowToSession(row), nil
}

// Delete removes the session and all of its messages in one transaction.
// The session row is locked first, so a concurrent Append either completes
// before the cascade or fails with ErrSessionNotFound; it can never slip a
// message in between the check and the delete.
func (s *SessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if s.pool == nil {
		return s.deleteNonTransactional(ctx, sessionID)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapPgError("beginning delete transaction", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			s.logger.Debug("transaction rollback (may be already committed)", "error", err)
		}
	}()

	txQuerier := postgres.New(tx)

	pgID := uuidToPgUUID(sessionID)
	if _, err := txQuerier.LockSession(ctx, pgID); err != nil {
		if isNoRows(err) {
			return ErrSessionNotFound
		}
		return mapPgError("locking session", err)
	}

	removed, err := txQuerier.DeleteSessionMessages(ctx, pgID)
	if err != nil {
		return mapPgError("deleting session messages", err)
	}
	if err := txQuerier.DeleteSession(ctx, pgID); err != nil {
		return mapPgError("deleting session", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapPgError("committing delete transaction", err)
	}

	s.logger.Debug("deleted session", "id", sessionID, "messages_removed", removed)
	return nil
}

// deleteNonTransactional is the fallback for unit tests with a mock querier
// and no pool. The check-then-delete sequence is not atomic here.
func (s *SessionStore) deleteNonTransactional(ctx context.Context, sessionID uuid.UUID) error {
	pgID := uuidToPgUUID(sessionID)
	if _, err := s.querier.GetSession(ctx, pgID); err != nil {
		if isNoRows(err) {
			return ErrSessionNotFound
		}
		return mapPgError("checking session", err)
	}
	if _, err := s.querier.DeleteSessionMessages(ctx, pgID); err != nil {
		return mapPgError("deleting session messages", err)
	}
	if err := s.querier.DeleteSession(ctx, pgID); err != nil {
		return mapPgError("deleting session", err)
	}
	return nil
}

// ListByOwner returns the owner's sessions sorted by updated_at descending.
func (s *SessionStore) ListByOwner(ctx context.Context, ownerID string) ([]*Session, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, newValidationError(map[string]string{"owner_id": "must not be blank"})
	}

	rows, err := s.querier.ListSessionsByOwner(ctx, ownerID)
	if err != nil {
		return nil, mapPgError("listing sessions by owner", err)
	}

	sessions := make([]*Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, rowToSession(row))
	}
	return sessions, nil
}

// ListAll returns every session sorted by updated_at descending.
func (s *SessionStore) ListAll(ctx context.Context) ([]*Session, error) {
	rows, err := s.querier.ListSessions(ctx)
	if err != nil {
		return nil, mapPgError("listing sessions", err)
	}

	sessions := make([]*Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, rowToSession(row))
	}
	return sessions, nil
}

// validateSessionInput checks the create inputs and collects every failing
// field, so the caller gets all problems in one response.
func validateSessionInput(ownerID, title string) error {
	fields := make(map[string]string)
	if strings.TrimSpace(ownerID) == "" {
		fields["owner_id"] = "must not be blank"
	}
	collectTitleErrors(title, fields)
	if len(fields) > 0 {
		return newValidationError(fields)
	}
	return nil
}

func validateTitle(title string) error {
	fields := make(map[string]string)
	collectTitleErrors(title, fields)
	if len(fields) > 0 {
		return newValidationError(fields)
	}
	return nil
}

func collectTitleErrors(title string, fields map[string]string) {
	if strings.TrimSpace(title) == "" {
		fields["title"] = "must not be blank"
	} else if utf8.RuneCountInString(title) > MaxTitleLength {
		fields["title"] = "must not exceed 100 characters"
	}
}
