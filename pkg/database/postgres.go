package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/logging"
	"github.com/weavenet/weave-api/pkg/retry"
)

// Querier is the subset of pgx used by repositories. *pgxpool.Pool and pgx.Tx
// both satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps a pgxpool connection pool.
type DB struct {
	*pgxpool.Pool
}

var _ Querier = (*DB)(nil)

// Config holds database connection configuration.
type Config struct {
	URL             string
	MaxConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// NewConnection creates a new database connection pool.
func NewConnection(ctx context.Context, cfg *Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 25
	}

	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	if poolConfig.MaxConnLifetime == 0 {
		poolConfig.MaxConnLifetime = time.Hour
	}

	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	if poolConfig.MaxConnIdleTime == 0 {
		poolConfig.MaxConnIdleTime = time.Minute * 30
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// ConnectWithRetry calls NewConnection until it succeeds or the retry budget is
// spent. Useful at startup when the database container may still be booting.
func ConnectWithRetry(ctx context.Context, cfg *Config, retryCfg *retry.Config, logger *zap.Logger) (*DB, error) {
	attempt := 0
	return retry.DoWithResult(ctx, retryCfg, func() (*DB, error) {
		attempt++
		db, err := NewConnection(ctx, cfg)
		if err != nil {
			logger.Warn("Database connection attempt failed",
				zap.Int("attempt", attempt),
				zap.String("url", logging.SanitizeConnectionString(cfg.URL)),
				zap.String("error", logging.SanitizeError(err)))
			return nil, err
		}
		return db, nil
	})
}

// SQLDB returns a database/sql handle backed by the pool, for libraries that
// need one (migrations).
func (db *DB) SQLDB() *sql.DB {
	return stdlib.OpenDBFromPool(db.Pool)
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
