package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the slice of pgx behaviour the repositories need. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so the same repository type can
// run against the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Querier adds transaction creation on top of DBTX. *pgxpool.Pool
// implements it in production; tests substitute a pgxmock pool.
type Querier interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}
