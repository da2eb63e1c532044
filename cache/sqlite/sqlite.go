// Package sqlite provides an embedding cache stored in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/simplerag/cache"
)

// SqliteCache stores encoded vectors in a single table.
type SqliteCache struct {
	db        *sql.DB
	tableName string
}

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "embedding_cache"
}

// NewSqliteCache opens the database and creates the table if needed.
func NewSqliteCache(opts SqliteOptions) (*SqliteCache, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "embedding_cache"
	}

	c := &SqliteCache{
		db:        db,
		tableName: tableName,
	}

	if err := c.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return c, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (c *SqliteCache) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			vector BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`, c.tableName)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Get returns the vector stored under key.
func (c *SqliteCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	query := fmt.Sprintf("SELECT vector FROM %s WHERE key = ?", c.tableName)

	var data []byte
	if err := c.db.QueryRowContext(ctx, query, key).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
func (c *SqliteCache) Set(ctx context.Context, key string, vec []float32) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, vector, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			vector = excluded.vector,
			updated_at = excluded.updated_at
	`, c.tableName)

	if _, err := c.db.ExecContext(ctx, query, key, cache.EncodeVector(vec), time.Now()); err != nil {
		return fmt.Errorf("failed to save embedding: %w", err)
	}
	return nil
}

// Len returns the number of cached vectors.
func (c *SqliteCache) Len(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", c.tableName)
	if err := c.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return n, nil
}

// Close closes the database connection
func (c *SqliteCache) Close() error {
	return c.db.Close()
}
