// Package history keeps undo snapshots of edited documents in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// Entry is the content of a document before one edit.
type Entry struct {
	ID          string    `json:"id"`
	URI         string    `json:"uri"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store persists history entries.
type Store struct {
	db    *sql.DB
	limit int
	now   func() time.Time
}

// Open opens (and creates) the history database at path and migrates it.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// every connection to :memory: would see its own database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	s := NewWithDB(db)
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an open, migrated database connection.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// SetLimit bounds the number of entries kept per document. Zero keeps all.
func (s *Store) SetLimit(limit int) {
	s.limit = limit
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores an entry. ID and CreatedAt are filled in when empty. When a
// limit is set, older entries of the same document are pruned.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (id, uri, description, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.URI, e.Description, e.Content, e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to record history: %w", err)
	}

	if s.limit > 0 {
		if err := s.Prune(ctx, e.URI, s.limit); err != nil {
			return Entry{}, err
		}
	}
	return e, nil
}

// Pop removes and returns the newest entry of a document. It returns nil
// when there is nothing to undo.
func (s *Store) Pop(ctx context.Context, uri string) (*Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	var e Entry
	err = tx.QueryRowContext(ctx,
		`SELECT seq, id, uri, description, content, created_at FROM history WHERE uri = ? ORDER BY seq DESC LIMIT 1`,
		uri).Scan(&seq, &e.ID, &e.URI, &e.Description, &e.Content, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE seq = ?`, seq); err != nil {
		return nil, fmt.Errorf("failed to delete history entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit history: %w", err)
	}
	return &e, nil
}

// List returns up to limit entries of a document, newest first. A
// non-positive limit returns all entries.
func (s *Store) List(ctx context.Context, uri string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, uri, description, content, created_at FROM history WHERE uri = ? ORDER BY seq DESC LIMIT ?`,
		uri, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.URI, &e.Description, &e.Content, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune keeps only the newest keep entries of a document.
func (s *Store) Prune(ctx context.Context, uri string, keep int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM history WHERE uri = ? AND seq NOT IN (
			SELECT seq FROM history WHERE uri = ? ORDER BY seq DESC LIMIT ?
		)`, uri, uri, keep)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	return nil
}
