package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/healthcoach/internal/domain"
	"github.com/ashureev/healthcoach/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes writers to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		fields_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_profiles_email ON profiles(email);

	CREATE TABLE IF NOT EXISTS progress (
		user_id TEXT PRIMARY KEY,
		fields_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// FindProfilesByEmail returns profiles matching email in insertion order.
func (s *SQLiteStore) FindProfilesByEmail(ctx context.Context, email string, limit int) ([]*domain.ProfileRecord, error) {
	query := `
		SELECT user_id, email, fields_json, created_at, updated_at
		FROM profiles WHERE email = ?
		ORDER BY created_at, rowid`
	args := []interface{}{email}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close profile rows", "error", closeErr)
		}
	}()

	var records []*domain.ProfileRecord
	for rows.Next() {
		var rec domain.ProfileRecord
		var fieldsJSON string
		var createdAt, updatedAt int64

		if err := rows.Scan(&rec.ID, &rec.Email, &fieldsJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}

		rec.Fields, err = decodeFields(fieldsJSON)
		if err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", rec.ID, err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0)
		rec.UpdatedAt = time.Unix(updatedAt, 0)
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return records, nil
}

// GetProgress retrieves the progress attributes of a user.
func (s *SQLiteStore) GetProgress(ctx context.Context, userID string) (map[string]any, error) {
	row := s.db.QueryRowContext(ctx, `SELECT fields_json FROM progress WHERE user_id = ?`, userID)

	var fieldsJSON string
	err := row.Scan(&fieldsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan progress row: %w", err)
	}

	fields, err := decodeFields(fieldsJSON)
	if err != nil {
		return nil, fmt.Errorf("decode progress %s: %w", userID, err)
	}
	return fields, nil
}

// UpsertProfile creates or replaces a profile record. The email column is
// taken from record.Email, falling back to the "email" attribute.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, record *domain.ProfileRecord) error {
	if record.ID == "" {
		return fmt.Errorf("upsert profile: user id is required")
	}

	email := strings.TrimSpace(record.Email)
	if email == "" {
		if v, ok := record.Fields[domain.KeyEmail].(string); ok {
			email = strings.TrimSpace(v)
		}
	}
	if email == "" {
		return fmt.Errorf("upsert profile %s: email is required", record.ID)
	}

	fieldsJSON, err := json.Marshal(record.Fields)
	if err != nil {
		return fmt.Errorf("encode profile fields: %w", err)
	}

	now := time.Now()
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	query := `
	INSERT INTO profiles (user_id, email, fields_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		email = excluded.email,
		fields_json = excluded.fields_json,
		updated_at = excluded.updated_at`

	return s.execWithRetry(ctx, "upsert profile", query,
		record.ID, email, string(fieldsJSON), createdAt.Unix(), now.Unix())
}

// UpsertProgress creates or replaces the progress record of a user.
func (s *SQLiteStore) UpsertProgress(ctx context.Context, userID string, fields map[string]any) error {
	if userID == "" {
		return fmt.Errorf("upsert progress: user id is required")
	}

	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode progress fields: %w", err)
	}

	query := `
	INSERT INTO progress (user_id, fields_json, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		fields_json = excluded.fields_json,
		updated_at = excluded.updated_at`

	return s.execWithRetry(ctx, "upsert progress", query, userID, string(fieldsJSON), time.Now().Unix())
}

// execWithRetry runs a write with exponential backoff on SQLITE_BUSY errors.
func (s *SQLiteStore) execWithRetry(ctx context.Context, op, query string, args ...interface{}) error {
	maxRetries := 3
	baseDelay := 50 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		err := s.execOnce(ctx, query, args...)
		if err == nil {
			return nil
		}

		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // 50ms, 100ms
			slog.Debug("SQLite write busy, retrying", "op", op, "attempt", i+1, "delay", delay)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", op, ctx.Err())
			case <-time.After(delay):
			}
			continue
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *SQLiteStore) execOnce(ctx context.Context, query string, args ...interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// decodeFields parses a stored attribute map, keeping numbers as json.Number
// so integer progress values survive unchanged.
func decodeFields(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = make(map[string]any)
	}
	return fields, nil
}
