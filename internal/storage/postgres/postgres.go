// Package postgres stores promotion and product metadata in PostgreSQL.
// Sales history lives in ClickHouse; only the low-volume relational data
// belongs here.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"trade-promo-lab/internal/observability"
)

// Pool is the shared pgx connection pool. Embedding exposes Query, Exec,
// and Close directly; stores take *Pool so tests can swap backends.
type Pool struct {
	*pgxpool.Pool
}

// NewPool opens a pool for the DSN and pings it before handing it out, so
// a bad DSN fails at startup rather than on the first query.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// observeQuery feeds query duration and errors to the storage metrics.
// Store methods defer it over a named error return.
func observeQuery(store, operation string, start time.Time, err *error) {
	observability.RecordStoreQuery(store, operation, time.Since(start).Seconds(), *err)
}

// unique_violation
const pgErrUniqueViolation = "23505"

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
