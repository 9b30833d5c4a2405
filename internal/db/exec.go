package db

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
)

// PgExecutor implements Executor over a Postgres pool.
type PgExecutor struct {
	pool Pool
}

// NewPgExecutor wraps pool.
func NewPgExecutor(pool Pool) *PgExecutor {
	return &PgExecutor{pool: pool}
}

// Execute runs sql and collects every returned row. Cancelling ctx aborts
// the statement server-side.
func (e *PgExecutor) Execute(ctx context.Context, sql string, args ...any) ([][]any, error) {
	rows, err := e.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "db: execute")
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, eris.Wrap(err, "db: read row")
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "db: execute")
	}
	return out, nil
}

// SQLExecutor implements Executor over database/sql (the SQLite store).
type SQLExecutor struct {
	db *sql.DB
}

// NewSQLExecutor wraps db.
func NewSQLExecutor(db *sql.DB) *SQLExecutor {
	return &SQLExecutor{db: db}
}

// Execute runs query and collects every returned row.
func (e *SQLExecutor) Execute(ctx context.Context, query string, args ...any) ([][]any, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "db: execute")
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "db: columns")
	}

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrap(err, "db: read row")
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "db: execute")
	}
	return out, nil
}
