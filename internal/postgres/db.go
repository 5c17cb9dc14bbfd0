// Package postgres contains the SQL query layer for the chat storage schema.
//
// Queries run against anything that satisfies DBTX, so the same methods work
// on a *pgxpool.Pool and inside a pgx.Tx. The store layer decides which one
// to use; this package stays free of transaction logic.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx operations the queries need.
// Satisfied by *pgxpool.Pool, *pgx.Conn, and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// New creates a Queries instance bound to the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries executes the chat storage SQL statements.
type Queries struct {
	db DBTX
}

// WithTx returns a Queries instance bound to the given transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}
