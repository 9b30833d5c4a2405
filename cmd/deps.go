package main

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sparsh2712/DataPipeline/internal/db"
	"github.com/sparsh2712/DataPipeline/internal/errlog"
	"github.com/sparsh2712/DataPipeline/internal/fetcher"
	"github.com/sparsh2712/DataPipeline/internal/monitoring"
	"github.com/sparsh2712/DataPipeline/internal/sink"
)

// store is the opened persistence boundary for one command.
type store struct {
	Sink sink.Sink
	Exec db.Executor

	// Pool is set for the postgres driver only.
	Pool *pgxpool.Pool
}

// withStore opens the configured store for the duration of fn and releases
// it on every exit path.
func withStore(ctx context.Context, fn func(ctx context.Context, st store) error) error {
	switch cfg.Store.Driver {
	case "sqlite":
		sdb, err := db.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return err
		}
		defer closeSQLite(sdb)
		return fn(ctx, store{Sink: sink.NewSQLite(sdb), Exec: db.NewSQLExecutor(sdb)})
	default:
		dsn, err := db.DSNFromConfig(cfg.Store)
		if err != nil {
			return err
		}
		return db.WithPool(ctx, dsn, func(ctx context.Context, pool *pgxpool.Pool) error {
			return fn(ctx, store{Sink: sink.NewPostgres(pool), Exec: db.NewPgExecutor(pool), Pool: pool})
		})
	}
}

// withPostgres opens a postgres pool for commands that need pipeline tables.
func withPostgres(ctx context.Context, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	dsn, err := db.DSNFromConfig(cfg.Store)
	if err != nil {
		return err
	}
	return db.WithPool(ctx, dsn, fn)
}

func closeSQLite(sdb *sql.DB) {
	if err := sdb.Close(); err != nil {
		zap.L().Warn("close sqlite", zap.Error(err))
	}
}

// newClient builds the portal client from the session, fetch and harvest
// config sections.
func newClient(errs *errlog.Log, metrics *monitoring.Metrics) (*fetcher.Client, error) {
	headers, err := fetcher.LoadHeaders(cfg.Harvest.HeadersFile)
	if err != nil {
		return nil, err
	}
	opts := fetcher.OptionsFromConfig(cfg, headers)
	opts.ErrLog = errs
	opts.Metrics = metrics
	return fetcher.NewClient(opts)
}

// openErrLog opens the configured error log.
func openErrLog() (*errlog.Log, func(), error) {
	errs, err := errlog.Open(cfg.Harvest.ErrorLog)
	if err != nil {
		return nil, nil, err
	}
	return errs, func() {
		if err := errs.Close(); err != nil {
			zap.L().Warn("close error log", zap.Error(err))
		}
	}, nil
}

// flushMetrics writes the metrics textfile when one is configured.
func flushMetrics(metrics *monitoring.Metrics) {
	if cfg.Harvest.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.Harvest.MetricsFile); err != nil {
		zap.L().Warn("write metrics textfile", zap.Error(err))
	}
}
