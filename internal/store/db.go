package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Pool sizes the connection pool of a database handle.
type Pool struct {
	MaxOpen int
	MaxIdle int
}

var (
	primaryPool  = Pool{MaxOpen: 20, MaxIdle: 10}
	researchPool = Pool{MaxOpen: 8, MaxIdle: 4}
)

// Open connects to the primary database.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	return open(ctx, databaseURL, primaryPool)
}

// OpenReadOnly connects to a database owned by another system. Every session
// defaults to read-only transactions.
func OpenReadOnly(ctx context.Context, databaseURL string) (*sql.DB, error) {
	dsn, err := withRuntimeParam(databaseURL, "default_transaction_read_only", "on")
	if err != nil {
		return nil, err
	}
	return open(ctx, dsn, researchPool)
}

func open(ctx context.Context, dsn string, pool Pool) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(pool.MaxIdle)
	db.SetMaxOpenConns(pool.MaxOpen)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// withRuntimeParam adds a server parameter to a postgres:// URL; pgx sends
// unknown query parameters as session settings.
func withRuntimeParam(databaseURL, key, value string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("database url must use the postgres scheme")
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
