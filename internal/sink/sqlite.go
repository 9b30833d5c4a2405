package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sparsh2712/DataPipeline/internal/db"
)

// SQLite writes batches to a local database file. Tables are created on
// first use with untyped columns, so values keep their Go type.
type SQLite struct {
	db *sql.DB

	mu      sync.Mutex
	created map[string]bool
}

// NewSQLite creates a SQLite sink over an open database.
func NewSQLite(sdb *sql.DB) *SQLite {
	return &SQLite{db: sdb, created: make(map[string]bool)}
}

// Write creates the table if needed, then inserts the batch.
func (s *SQLite) Write(ctx context.Context, b Batch) (int64, error) {
	if len(b.Rows) == 0 {
		return 0, nil
	}
	if err := s.ensureTable(ctx, b); err != nil {
		return 0, err
	}
	return db.InsertRowsSQL(ctx, s.db, db.SQLite, b.insertConfig(), b.Rows)
}

func (s *SQLite) ensureTable(ctx context.Context, b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created[b.Table] {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, createTableSQL(b)); err != nil {
		return eris.Wrapf(err, "sink: create sqlite table %s", b.Table)
	}
	s.created[b.Table] = true
	return nil
}

func createTableSQL(b Batch) string {
	cols := make([]string, 0, len(b.Columns)+1)
	for _, c := range b.Columns {
		cols = append(cols, pgx.Identifier{c}.Sanitize())
	}
	if len(b.UniqueKeys) > 0 {
		keys := make([]string, len(b.UniqueKeys))
		for i, k := range b.UniqueKeys {
			keys[i] = pgx.Identifier{k}.Sanitize()
		}
		cols = append(cols, "UNIQUE ("+strings.Join(keys, ", ")+")")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		db.SQLite.Table(b.Table), strings.Join(cols, ", "))
}
