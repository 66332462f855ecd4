package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"comics_mailer/migrations"
)

const (
	timeLayout = "2006-01-02T15:04:05Z"

	checkpointLastUpdate = "last_update"
)

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// ":memory:" databases live and die with a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// LastUpdate returns the stored last-update date.
// A stored value that is not a date yields ErrInvalidCheckpoint.
func (s *SQLite) LastUpdate(ctx context.Context) (*time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM checkpoints WHERE name = ?`, checkpointLastUpdate,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query checkpoint: %w", err)
	}

	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCheckpoint, raw)
	}
	return &d, nil
}

// SetLastUpdate stores the calendar date of date as the last-update date.
func (s *SQLite) SetLastUpdate(ctx context.Context, date time.Time) error {
	return s.setCheckpoint(ctx, checkpointLastUpdate, date.Format(DateLayout))
}

func (s *SQLite) setCheckpoint(ctx context.Context, name, value string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value, now,
	)
	if err != nil {
		return fmt.Errorf("update checkpoint %s: %w", name, err)
	}
	return nil
}
