// Package runlog records harvest runs in pipeline.harvest_log.
package runlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sparsh2712/DataPipeline/internal/db"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Entry represents a row in pipeline.harvest_log.
type Entry struct {
	ID          uuid.UUID  `json:"id"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Endpoints   int        `json:"endpoints"`
	RowsWritten int64      `json:"rows_written"`
	FailedPages int        `json:"failed_pages"`
	Error       string     `json:"error,omitempty"`
}

// Result is the outcome of a harvest, passed to Complete.
type Result struct {
	Endpoints   int
	RowsWritten int64
	FailedPages int
}

// Log provides read/write access to the harvest log table.
type Log struct {
	pool  db.Pool
	newID func() uuid.UUID
}

// New creates a Log backed by pool.
func New(pool db.Pool) *Log {
	return &Log{pool: pool, newID: uuid.New}
}

// Start records the beginning of a run and returns its ID.
func (l *Log) Start(ctx context.Context) (uuid.UUID, error) {
	id := l.newID()
	_, err := l.pool.Exec(ctx,
		`INSERT INTO pipeline.harvest_log (id, status, started_at)
		 VALUES ($1, $2, now())`,
		id.String(), StatusRunning,
	)
	if err != nil {
		return uuid.Nil, eris.Wrap(err, "runlog: start run")
	}
	return id, nil
}

// Complete marks a run as finished. Per-page failures do not fail a run.
func (l *Log) Complete(ctx context.Context, id uuid.UUID, res Result) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE pipeline.harvest_log
		 SET status = $1, completed_at = now(), endpoints = $2, rows_written = $3, failed_pages = $4
		 WHERE id = $5`,
		StatusComplete, res.Endpoints, res.RowsWritten, res.FailedPages, id.String(),
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: complete run %s", id)
	}
	return nil
}

// Fail marks a run as aborted with an error message.
func (l *Log) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE pipeline.harvest_log
		 SET status = $1, completed_at = now(), error = $2
		 WHERE id = $3`,
		StatusFailed, errMsg, id.String(),
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: fail run %s", id)
	}
	return nil
}

// Recent returns up to limit entries, most recent first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, status, started_at, completed_at, endpoints, rows_written, failed_pages, error
		 FROM pipeline.harvest_log ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list recent")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var id string
		var errStr *string
		if err := rows.Scan(&id, &e.Status, &e.StartedAt, &e.CompletedAt, &e.Endpoints, &e.RowsWritten, &e.FailedPages, &errStr); err != nil {
			return nil, eris.Wrap(err, "runlog: scan entry")
		}
		e.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, eris.Wrapf(err, "runlog: parse run id %q", id)
		}
		if errStr != nil {
			e.Error = *errStr
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
