// Package db exports datasets to PostgreSQL.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool wraps pgxpool with our configuration
type Pool struct {
	pool *pgxpool.Pool
}

// PasswordLookup returns the stored password for a connection target
type PasswordLookup func(host string, port uint16, database, user string) (string, error)

// NewPool creates a connection pool for dsn and checks it with a ping.
// maxConns <= 0 keeps the default of 4. When the DSN has no password and
// lookup is not nil, the password is taken from lookup.
func NewPool(ctx context.Context, dsn string, maxConns int32, lookup PasswordLookup) (*Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("no PostgreSQL DSN configured (set postgres.dsn or LAZYSHEET_POSTGRES_DSN)")
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	cc := poolConfig.ConnConfig
	if cc.Password == "" && lookup != nil {
		if pw, err := lookup(cc.Host, cc.Port, cc.Database, cc.User); err == nil {
			cc.Password = pw
		}
	}

	// Configure pool settings
	if maxConns <= 0 {
		maxConns = 4
	}
	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Close closes the connection pool
func (p *Pool) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Ping tests the connection
func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// GetPool returns the underlying pgxpool.Pool
func (p *Pool) GetPool() *pgxpool.Pool {
	return p.pool
}
