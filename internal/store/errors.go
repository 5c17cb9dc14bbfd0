package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Input bounds. Title and sender are rejected, never truncated, when they
// exceed their limit; limits count runes, matching the column semantics.
const (
	MaxTitleLength  = 100
	MaxSenderLength = 255

	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPageIndex    = 100000
)

// Sentinel errors for store operations, part of the public API.
// Check with errors.Is().
var (
	// ErrSessionNotFound indicates the referenced session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrIntegrityViolation indicates the database rejected a write due to a
	// constraint conflict, e.g. concurrent conflicting writes.
	ErrIntegrityViolation = errors.New("integrity violation")
)

// ValidationError reports malformed or out-of-bound input with per-field
// detail. Retrieve with errors.As().
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", f, e.Fields[f])
	}
	return b.String()
}

// newValidationError builds a ValidationError from field/message pairs.
func newValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// mapPgError classifies low-level database errors into the store taxonomy.
// pgx.ErrNoRows becomes ErrSessionNotFound only where the caller knows the
// missing row is a session, so that mapping stays at the call sites.
func mapPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return fmt.Errorf("%s: %w: %s", op, ErrIntegrityViolation, pgErr.Code)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isNoRows reports whether err is pgx's empty-result sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
