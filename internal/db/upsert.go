package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// maxParams is Postgres' bind-parameter limit per statement.
const maxParams = 65535

// InsertConfig defines a multi-row insert. With ConflictKeys set the insert
// becomes an upsert.
type InsertConfig struct {
	Table        string   // target table (e.g., "nse.insider_trading")
	Columns      []string // all columns being inserted
	ConflictKeys []string // columns forming the unique constraint; empty = append-only
	UpdateCols   []string // columns to update on conflict; nil = all non-conflict columns
}

// Dialect renders placeholders and table names for one database.
type Dialect struct {
	Placeholder func(n int) string
	Table       func(name string) string
}

// Postgres numbers placeholders and quotes schema-qualified names.
var Postgres = Dialect{
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	Table:       SanitizeTable,
}

// SQLite has no schemas, so "nse.insider" becomes "nse_insider".
var SQLite = Dialect{
	Placeholder: func(int) string { return "?" },
	Table: func(name string) string {
		return pgx.Identifier{strings.ReplaceAll(name, ".", "_")}.Sanitize()
	},
}

// BuildInsert renders INSERT INTO table (cols) VALUES (...), ... for nrows
// rows, with ON CONFLICT handling when ConflictKeys is set.
func BuildInsert(d Dialect, cfg InsertConfig, nrows int) (string, error) {
	if len(cfg.Columns) == 0 {
		return "", eris.New("db: insert: no columns specified")
	}
	if nrows <= 0 {
		return "", eris.New("db: insert: no rows")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", d.Table(cfg.Table), quoteAndJoin(cfg.Columns))

	n := 1
	for r := 0; r < nrows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range cfg.Columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(n))
			n++
		}
		b.WriteByte(')')
	}

	if len(cfg.ConflictKeys) > 0 {
		updateCols := cfg.UpdateCols
		if updateCols == nil {
			updateCols = nonKeyColumns(cfg.Columns, cfg.ConflictKeys)
		}
		fmt.Fprintf(&b, " ON CONFLICT (%s)", quoteAndJoin(cfg.ConflictKeys))
		if len(updateCols) == 0 {
			b.WriteString(" DO NOTHING")
		} else {
			setClauses := make([]string, len(updateCols))
			for i, col := range updateCols {
				q := pgx.Identifier{col}.Sanitize()
				setClauses[i] = fmt.Sprintf("%s = EXCLUDED.%s", q, q)
			}
			b.WriteString(" DO UPDATE SET " + strings.Join(setClauses, ", "))
		}
	}

	return b.String(), nil
}

func nonKeyColumns(cols, keys []string) []string {
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}
	var out []string
	for _, c := range cols {
		if !keySet[c] {
			out = append(out, c)
		}
	}
	return out
}

// chunkRows splits rows so no statement exceeds the bind-parameter limit.
func chunkRows(rows [][]any, ncols int) [][][]any {
	per := maxParams / ncols
	if per < 1 {
		per = 1
	}
	var chunks [][][]any
	for len(rows) > 0 {
		n := min(per, len(rows))
		chunks = append(chunks, rows[:n])
		rows = rows[n:]
	}
	return chunks
}

func flatten(rows [][]any) []any {
	var args []any
	for _, r := range rows {
		args = append(args, r...)
	}
	return args
}

// InsertRows writes rows to Postgres in as few statements as the parameter
// limit allows, inside one transaction.
func InsertRows(ctx context.Context, pool Pool, cfg InsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: insert: no columns specified")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: insert: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var total int64
	for _, chunk := range chunkRows(rows, len(cfg.Columns)) {
		stmt, err := BuildInsert(Postgres, cfg, len(chunk))
		if err != nil {
			return 0, err
		}
		tag, err := tx.Exec(ctx, stmt, flatten(chunk)...)
		if err != nil {
			return 0, eris.Wrapf(err, "db: insert into %s", cfg.Table)
		}
		total += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: insert: commit tx")
	}
	return total, nil
}

// InsertRowsSQL is InsertRows for database/sql stores.
func InsertRowsSQL(ctx context.Context, sdb *sql.DB, d Dialect, cfg InsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: insert: no columns specified")
	}

	tx, err := sdb.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "db: insert: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var total int64
	for _, chunk := range chunkRows(rows, len(cfg.Columns)) {
		stmt, err := BuildInsert(d, cfg, len(chunk))
		if err != nil {
			return 0, err
		}
		res, err := tx.ExecContext(ctx, stmt, flatten(chunk)...)
		if err != nil {
			return 0, eris.Wrapf(err, "db: insert into %s", cfg.Table)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "db: insert: rows affected")
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "db: insert: commit tx")
	}
	return total, nil
}

// SanitizeTable quotes a possibly schema-qualified table name like
// "nse.metadata".
func SanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
