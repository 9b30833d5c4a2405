// Package sink persists harvested batches. Postgres is the production store;
// SQLite serves local runs.
package sink

import (
	"context"

	"github.com/sparsh2712/DataPipeline/internal/db"
)

// Batch is one bounded group of projected records bound for one table.
// Every row carries one value per column; nil is written as NULL.
type Batch struct {
	Table      string
	Columns    []string
	UniqueKeys []string
	Rows       [][]any
}

// Sink writes batches and reports how many rows were written.
type Sink interface {
	Write(ctx context.Context, b Batch) (int64, error)
}

func (b Batch) insertConfig() db.InsertConfig {
	return db.InsertConfig{
		Table:        b.Table,
		Columns:      b.Columns,
		ConflictKeys: b.UniqueKeys,
	}
}

// Postgres writes batches through a pgx pool.
type Postgres struct {
	pool db.Pool
}

// NewPostgres creates a Postgres sink.
func NewPostgres(pool db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Write inserts the batch in one transaction. With UniqueKeys set,
// conflicting rows are updated in place.
func (p *Postgres) Write(ctx context.Context, b Batch) (int64, error) {
	return db.InsertRows(ctx, p.pool, b.insertConfig(), b.Rows)
}
