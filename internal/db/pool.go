// Package db is the persistence boundary: connection parameters, scoped
// connection acquisition, the row-returning Execute operation and the
// multi-row insert builder shared by the sinks.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the subset of *pgxpool.Pool the pipeline uses. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Executor runs one SQL statement and returns its rows as ordered tuples.
// Statements without a result set return no rows.
type Executor interface {
	Execute(ctx context.Context, sql string, args ...any) ([][]any, error)
}
