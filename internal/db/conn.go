package db

import (
	"context"
	"net"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sparsh2712/DataPipeline/internal/config"
)

// connKeys is the exact key set a discrete connection config must carry.
var connKeys = []string{"database", "host", "password", "port", "user"}

// ConnParams are the five discrete Postgres connection parameters.
type ConnParams struct {
	Database string
	Host     string
	Port     string
	User     string
	Password string
}

// ParseConnParams validates that m carries exactly the keys database, host,
// port, user and password. Any missing or extra key is a *config.Error.
func ParseConnParams(m map[string]string) (ConnParams, error) {
	var missing, extra []string
	for _, k := range connKeys {
		if _, ok := m[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range m {
		if !isConnKey(k) {
			extra = append(extra, k)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(extra)
		return ConnParams{}, config.Invalidf(
			"db: connection parameters must be exactly %s (missing: %s, unexpected: %s)",
			strings.Join(connKeys, ", "), joinOrNone(missing), joinOrNone(extra),
		)
	}
	return ConnParams{
		Database: m["database"],
		Host:     m["host"],
		Port:     m["port"],
		User:     m["user"],
		Password: m["password"],
	}, nil
}

func isConnKey(k string) bool {
	for _, c := range connKeys {
		if c == k {
			return true
		}
	}
	return false
}

func joinOrNone(s []string) string {
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, ", ")
}

// DSN renders the parameters as a postgres:// URL.
func (p ConnParams) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   net.JoinHostPort(p.Host, p.Port),
		Path:   "/" + p.Database,
	}
	return u.String()
}

// DSNFromConfig picks store.database_url, falling back to the discrete
// connection parameters.
func DSNFromConfig(cfg config.StoreConfig) (string, error) {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL, nil
	}
	if len(cfg.Connection) == 0 {
		return "", config.Invalidf("db: no database_url or connection parameters configured")
	}
	p, err := ParseConnParams(cfg.Connection)
	if err != nil {
		return "", err
	}
	return p.DSN(), nil
}

// Open creates a small pool. Statements go over the simple protocol so
// arguments are sent as literals and Postgres converts them to the column
// types, the way a hand-built INSERT would.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, config.Invalidf("db: parse connection string: %v", err)
	}
	poolCfg.MaxConns = 2
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "db: create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "db: ping database")
	}

	zap.L().Debug("connected to database", zap.String("host", poolCfg.ConnConfig.Host))
	return pool, nil
}

// WithPool opens a pool for the duration of fn and closes it on every exit
// path, including panics and cancellation.
func WithPool(ctx context.Context, dsn string, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	pool, err := Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}
