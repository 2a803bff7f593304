package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TextCache maps a document's sha256 to its extracted text.
type TextCache struct {
	db *sql.DB
}

func (c *TextCache) Get(ctx context.Context, hash string) (text, method string, ok bool, err error) {
	err = c.db.QueryRowContext(ctx, `SELECT text, method FROM text_cache WHERE hash = ?`, hash).Scan(&text, &method)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("sqlite: text cache get: %w", err)
	}
	return text, method, true, nil
}

func (c *TextCache) Put(ctx context.Context, hash, method, text string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO text_cache (hash, method, text, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET method = excluded.method, text = excluded.text`,
		hash, method, text, stamp(time.Now()))
	if err != nil {
		return fmt.Errorf("sqlite: text cache put: %w", err)
	}
	return nil
}
