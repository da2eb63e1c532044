// Package postgres provides a PostgreSQL-backed embedding cache using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/simplerag/cache"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresCache stores encoded vectors in a BYTEA column.
type PostgresCache struct {
	pool      DBPool
	tableName string
}

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "embedding_cache"
}

// NewPostgresCache connects to the database and creates the table if needed.
func NewPostgresCache(ctx context.Context, opts PostgresOptions) (*PostgresCache, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	c := NewPostgresCacheWithPool(pool, opts.TableName)
	if err := c.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

// NewPostgresCacheWithPool creates a cache over an existing pool.
func NewPostgresCacheWithPool(pool DBPool, tableName string) *PostgresCache {
	if tableName == "" {
		tableName = "embedding_cache"
	}
	return &PostgresCache{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (c *PostgresCache) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			vector BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, c.tableName)

	if _, err := c.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Get returns the vector stored under key.
func (c *PostgresCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	query := fmt.Sprintf("SELECT vector FROM %s WHERE key = $1", c.tableName)

	var data []byte
	if err := c.pool.QueryRow(ctx, query, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load embedding: %w", err)
	}

	vec, err := cache.DecodeVector(data)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Set upserts vec under key.
func (c *PostgresCache) Set(ctx context.Context, key string, vec []float32) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, vector, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			vector = EXCLUDED.vector,
			updated_at = EXCLUDED.updated_at
	`, c.tableName)

	if _, err := c.pool.Exec(ctx, query, key, cache.EncodeVector(vec)); err != nil {
		return fmt.Errorf("failed to save embedding: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (c *PostgresCache) Close() error {
	c.pool.Close()
	return nil
}
