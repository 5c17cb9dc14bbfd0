package store

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragworks/ragchat/internal/log"
	"github.com/ragworks/ragchat/internal/postgres"
)

// MessageStore owns the lifecycle of messages, each bound to exactly one
// session.
type MessageStore struct {
	querier Querier
	pool    *pgxpool.Pool // transaction support; nil in unit tests with mocks
	logger  log.Logger
}

// NewMessageStore creates a MessageStore.
// pool may be nil in tests with a mock querier; Append then runs without a
// transaction and loses the lock against concurrent session deletes.
func NewMessageStore(querier Querier, pool *pgxpool.Pool, logger log.Logger) *MessageStore {
	if logger == nil {
		logger = log.NewNop()
	}
	return &MessageStore{querier: querier, pool: pool, logger: logger}
}

// Append inserts a message into the session as one atomic unit: the session
// row is locked FOR UPDATE (absent session → ErrSessionNotFound), the message
// is inserted with a server-assigned creation timestamp, and the session's
// updated_at is refreshed so recency listings reflect conversation activity.
// A concurrent Delete blocks on the same lock, so no commit can leave a
// message referencing a deleted session.
//
// contextBlob is an opaque caller-defined payload; nil means none.
func (s *MessageStore) Append(ctx context.Context, sessionID uuid.UUID, sender, content string, contextBlob *string) (*Message, error) {
	if err := validateMessageInput(sender, content); err != nil {
		return nil, err
	}

	if s.pool == nil {
		return s.appendNonTransactional(ctx, sessionID, sender, content, contextBlob)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, mapPgError("beginning append transaction", err)
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
			return nil, ErrSessionNotFound
		}
		return nil, mapPgError("locking session", err)
	}

	row, err := txQuerier.InsertMessage(ctx, postgres.InsertMessageParams{
		SessionID: pgID,
		Sender:    sender,
		Content:   content,
		Context:   contextBlob,
	})
	if err != nil {
		return nil, mapPgError("inserting message", err)
	}

	if err := txQuerier.TouchSession(ctx, pgID); err != nil {
		return nil, mapPgError("touching session", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPgError("committing append transaction", err)
	}

	msg := rowToMessage(row)
	s.logger.Debug("appended message", "id", msg.ID, "session_id", sessionID)
	return msg, nil
}

// appendNonTransactional is the fallback for unit tests with a mock querier
// and no pool. The existence check and the insert are separate statements
// here, so the narrow delete/append race is open.
func (s *MessageStore) appendNonTransactional(ctx context.Context, sessionID uuid.UUID, sender, content string, contextBlob *string) (*Message, error) {
	pgID := uuidToPgUUID(sessionID)
	if _, err := s.querier.GetSession(ctx, pgID); err != nil {
		if isNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, mapPgError("checking session", err)
	}

	row, err := s.querier.InsertMessage(ctx, postgres.InsertMessageParams{
		SessionID: pgID,
		Sender:    sender,
		Content:   content,
		Context:   contextBlob,
	})
	if err != nil {
		return nil, mapPgError("inserting message", err)
	}

	if err := s.querier.TouchSession(ctx, pgID); err != nil {
		return nil, mapPgError("touching session", err)
	}

	return rowToMessage(row), nil
}

// ListPage returns one page of the session's messages ordered by creation
// time ascending (id as tiebreak), plus total-count metadata.
//
// page is zero-based. size must be positive and is clamped to MaxPageSize;
// size <= 0 is a validation failure rather than a silent default, matching
// the reject-don't-truncate policy for out-of-bound input.
func (s *MessageStore) ListPage(ctx context.Context, sessionID uuid.UUID, page, size int) (*MessagePage, error) {
	fields := make(map[string]string)
	if page < 0 {
		fields["page"] = "must not be negative"
	} else if page > MaxPageIndex {
		fields["page"] = "exceeds the maximum page index"
	}
	if size <= 0 {
		fields["size"] = "must be a positive integer"
	}
	if len(fields) > 0 {
		return nil, newValidationError(fields)
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	pgID := uuidToPgUUID(sessionID)
	if _, err := s.querier.GetSession(ctx, pgID); err != nil {
		if isNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, mapPgError("checking session", err)
	}

	total, err := s.querier.CountMessages(ctx, pgID)
	if err != nil {
		return nil, mapPgError("counting messages", err)
	}

	// #nosec G115 -- size clamped to MaxPageSize, page bounded by MaxPageIndex
	rows, err := s.querier.ListMessages(ctx, postgres.ListMessagesParams{
		SessionID: pgID,
		Limit:     int32(size),
		Offset:    int32(page) * int32(size),
	})
	if err != nil {
		return nil, mapPgError("listing messages", err)
	}

	messages := make([]*Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, rowToMessage(row))
	}

	totalPages := total / int64(size)
	if total%int64(size) != 0 {
		totalPages++
	}

	s.logger.Debug("listed messages", "session_id", sessionID, "page", page, "count", len(messages), "total", total)
	return &MessagePage{
		Messages:   messages,
		Page:       page,
		Size:       size,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

// validateMessageInput checks sender and content, collecting every failing
// field.
func validateMessageInput(sender, content string) error {
	fields := make(map[string]string)
	if strings.TrimSpace(sender) == "" {
		fields["sender"] = "must not be blank"
	} else if utf8.RuneCountInString(sender) > MaxSenderLength {
		fields["sender"] = "must not exceed 255 characters"
	}
	if strings.TrimSpace(content) == "" {
		fields["content"] = "must not be blank"
	}
	if len(fields) > 0 {
		return newValidationError(fields)
	}
	return nil
}
