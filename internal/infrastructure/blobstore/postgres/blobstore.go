// Package postgres persists entity collections in a key/value table, one
// row per collection. It backs multi-device deployments where the local
// filesystem is not durable.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
)

type BlobStore struct {
	db *sql.DB
}

func New(db *sql.DB) *BlobStore {
	return &BlobStore{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the collections table when absent.
func (s *BlobStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS collections (
    key        TEXT PRIMARY KEY,
    blob       JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)
`)
	if err != nil {
		return fmt.Errorf("ensure collections schema: %w", err)
	}
	return nil
}

func (s *BlobStore) Read(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `
SELECT blob FROM collections WHERE key = $1
`, key).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "read collection "+key, err)
		}
		return nil, fmt.Errorf("read collection %s: %w", key, err)
	}
	return blob, nil
}

func (s *BlobStore) Write(ctx context.Context, key string, blob []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO collections (key, blob, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET blob = EXCLUDED.blob, updated_at = now()
`, key, blob)
	if err != nil {
		return fmt.Errorf("write collection %s: %w", key, err)
	}
	return nil
}
