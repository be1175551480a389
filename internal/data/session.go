package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/biz"

	_ "modernc.org/sqlite"
)

// sqliteStorage is the SQLite-backed browser local storage
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (and creates if needed) the storage database.
func NewSQLiteStorage(dbPath string) (biz.LocalStorage, error) {
	// make sure the directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// pragmas go in the DSN so every pooled connection gets them
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS local_storage (
			scope TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (scope, key)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create local_storage table: %w", err)
	}

	return &sqliteStorage{db: db}, nil
}

// Get returns the values present among keys.
func (s *sqliteStorage) Get(ctx context.Context, scope string, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	args := make([]any, 0, len(keys)+1)
	args = append(args, scope)
	for _, k := range keys {
		args = append(args, k)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM local_storage WHERE scope = ? AND key IN ("+placeholders(len(keys))+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query local storage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan local storage row: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}

// SetMany upserts all entries in one transaction.
func (s *sqliteStorage) SetMany(ctx context.Context, scope string, entries map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO local_storage (scope, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for key, value := range entries {
		if _, err := stmt.ExecContext(ctx, scope, key, value); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Delete removes keys from the scope.
func (s *sqliteStorage) Delete(ctx context.Context, scope string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	args := make([]any, 0, len(keys)+1)
	args = append(args, scope)
	for _, k := range keys {
		args = append(args, k)
	}

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM local_storage WHERE scope = ? AND key IN ("+placeholders(len(keys))+")",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to delete from local storage: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
