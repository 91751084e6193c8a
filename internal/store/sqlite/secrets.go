// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/conduit-dev/conduit/internal/store"
)

func init() {
	store.RegisterBackend("sqlite", func(path string) (store.SecretStore, error) {
		return NewSecretStore(path)
	})
}

// Compile-time interface check.
var _ store.SecretStore = (*SecretStore)(nil)

// SecretStore implements store.SecretStore backed by SQLite.
type SecretStore struct {
	db *sql.DB
}

// NewSecretStore opens (or creates) a SQLite database at dbPath and
// initialises the api_keys table.
func NewSecretStore(dbPath string) (*SecretStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite db: %w", err)
	}

	return &SecretStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS api_keys (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	service    TEXT NOT NULL,
	api_key    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (user_id, service)
);

CREATE INDEX IF NOT EXISTS idx_api_keys_user ON api_keys(user_id);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *SecretStore) Close() error {
	return s.db.Close()
}

func (s *SecretStore) List(ctx context.Context, userID string) ([]*store.Secret, error) {
	if userID == "" {
		return nil, fmt.Errorf("list secrets: user id: %w", store.ErrInvalidInput)
	}

	const q = `SELECT id, user_id, service, api_key, created_at
FROM api_keys WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing secrets for user %s: %w", userID, err)
	}
	defer rows.Close()

	var secrets []*store.Secret
	for rows.Next() {
		var sec store.Secret
		var createdAt string
		if err := rows.Scan(&sec.ID, &sec.UserID, &sec.Service, &sec.Value, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning secret row: %w", err)
		}
		sec.CreatedAt = parseTime(createdAt)
		secrets = append(secrets, &sec)
	}

	return secrets, rows.Err()
}

func (s *SecretStore) Get(ctx context.Context, userID, service string) (*store.Secret, error) {
	if userID == "" || service == "" {
		return nil, fmt.Errorf("get secret: user id and service required: %w", store.ErrInvalidInput)
	}

	const q = `SELECT id, user_id, service, api_key, created_at
FROM api_keys WHERE user_id = ? AND service = ?`

	var sec store.Secret
	var createdAt string

	err := s.db.QueryRowContext(ctx, q, userID, service).Scan(
		&sec.ID,
		&sec.UserID,
		&sec.Service,
		&sec.Value,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("secret for service %q: %w", service, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting secret for service %q: %w", service, err)
	}

	sec.CreatedAt = parseTime(createdAt)
	return &sec, nil
}

// Save upserts the credential for (userID, service). The ON CONFLICT clause
// makes the upsert atomic at the row level, so two concurrent saves for the
// same pair can never create duplicate rows.
func (s *SecretStore) Save(ctx context.Context, userID, service, value string) (*store.Secret, error) {
	if userID == "" || service == "" || value == "" {
		return nil, fmt.Errorf("save secret: user id, service, and value required: %w", store.ErrInvalidInput)
	}

	const q = `INSERT INTO api_keys (id, user_id, service, api_key, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, service) DO UPDATE SET api_key = excluded.api_key`

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, q, id, userID, service, value, formatTime(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("saving secret for service %q: %w", service, err)
	}

	// Re-read so the caller sees the stored row (original ID and timestamp
	// survive an update).
	return s.Get(ctx, userID, service)
}

func (s *SecretStore) Delete(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return fmt.Errorf("delete secret: user id and secret id required: %w", store.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting secret %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for secret %s: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("secret %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// formatTime serialises a time.Time to RFC3339 with nanosecond precision.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime deserialises a time string stored in the database.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
