package db

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// OpenSQLite opens (or creates) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	sdb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "db: open sqlite %s", path)
	}
	// One writer at a time.
	sdb.SetMaxOpenConns(1)
	if err := sdb.PingContext(ctx); err != nil {
		_ = sdb.Close()
		return nil, eris.Wrapf(err, "db: ping sqlite %s", path)
	}
	return sdb, nil
}
