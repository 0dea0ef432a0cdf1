package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ContentRepository stores admin overrides of bot texts in sqlite.
type ContentRepository struct {
	db *sqlx.DB
}

type contentRow struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

func NewContentRepository(path string) (*ContentRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create content db directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open content db: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if err := createContentTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create content tables: %w", err)
	}
	return &ContentRepository{db: db}, nil
}

func createContentTables(db *sqlx.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS content (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (r *ContentRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var row contentRow
	err := r.db.GetContext(ctx, &row, `SELECT key, value, updated_at FROM content WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get content %s: %w", key, err)
	}
	return row.Value, true, nil
}

func (r *ContentRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.NamedExecContext(ctx, `
        INSERT INTO content (key, value, updated_at) VALUES (:key, :value, :updated_at)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		contentRow{Key: key, Value: value, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("set content %s: %w", key, err)
	}
	return nil
}

func (r *ContentRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM content WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete content %s: %w", key, err)
	}
	return nil
}

func (r *ContentRepository) All(ctx context.Context) (map[string]string, error) {
	var rows []contentRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT key, value, updated_at FROM content ORDER BY key`); err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

func (r *ContentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *ContentRepository) Close() error {
	return r.db.Close()
}
