// Package history records evaluations in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultListLimit is used by List when limit is not positive
const DefaultListLimit = 50

// Entry is one recorded evaluation. Exactly one of Result and Error is set.
type Entry struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id,omitempty"`
	Expression string    `json:"expression"`
	Postfix    string    `json:"postfix"`
	Result     *float64  `json:"result,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Succeeded reports whether the evaluation produced a result
func (e Entry) Succeeded() bool {
	return e.Result != nil
}

// Store handles SQLite operations for the evaluation history
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (and creates if needed) the history database at dbPath
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every new connection would get its own empty in-memory database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS evaluations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL DEFAULT '',
		expression TEXT NOT NULL,
		postfix TEXT NOT NULL DEFAULT '',
		result REAL,
		error_kind TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record stores an entry and returns it with ID and CreatedAt filled in
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var result sql.NullFloat64
	if entry.Result != nil {
		result = sql.NullFloat64{Float64: *entry.Result, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO evaluations (session_id, expression, postfix, result, error_kind, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID, entry.Expression, entry.Postfix, result, entry.ErrorKind, entry.Error, entry.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to insert evaluation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get evaluation id: %w", err)
	}
	entry.ID = id

	return entry, nil
}

// List returns up to limit entries, newest first
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, expression, postfix, result, error_kind, error, created_at
		 FROM evaluations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		var result sql.NullFloat64
		if err := rows.Scan(&entry.ID, &entry.SessionID, &entry.Expression, &entry.Postfix, &result,
			&entry.ErrorKind, &entry.Error, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		if result.Valid {
			value := result.Float64
			entry.Result = &value
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Get returns a single entry by ID
func (s *Store) Get(ctx context.Context, id int64) (Entry, error) {
	var entry Entry
	var result sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, expression, postfix, result, error_kind, error, created_at
		 FROM evaluations WHERE id = ?`, id).
		Scan(&entry.ID, &entry.SessionID, &entry.Expression, &entry.Postfix, &result, &entry.ErrorKind, &entry.Error, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get evaluation %d: %w", id, err)
	}
	if result.Valid {
		value := result.Float64
		entry.Result = &value
	}
	return entry, nil
}

// Count returns the number of stored entries
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evaluations").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count evaluations: %w", err)
	}
	return count, nil
}

// Prune deletes all but the newest keep entries. keep <= 0 is a no-op.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM evaluations WHERE id NOT IN (
			SELECT id FROM evaluations ORDER BY id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune evaluations: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes every entry
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM evaluations"); err != nil {
		return fmt.Errorf("failed to clear evaluations: %w", err)
	}
	return nil
}

// ErrNotFound is returned by Get for unknown IDs
var ErrNotFound = errors.New("evaluation not found")
