// Package store keeps named board document snapshots in a single SQLite
// file. Documents are stored as their JSON encoding so unknown record
// fields survive a round trip.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/gogpu/boardview/board"
)

// DefaultPath is used when Open receives an empty path.
const DefaultPath = "boardview.db"

var (
	// ErrNotFound is returned when no snapshot carries the requested name.
	ErrNotFound = errors.New("store: snapshot not found")
	// ErrEmptyName is returned for blank snapshot names.
	ErrEmptyName = errors.New("store: empty snapshot name")
)

// Entry describes one stored snapshot.
type Entry struct {
	Name       string
	Components int
	Updated    time.Time
}

// Store is a SQLite-backed snapshot table.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("store: create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		components INTEGER NOT NULL,
		updated INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create snapshots table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Put stores doc under name, replacing any previous snapshot.
func (s *Store) Put(ctx context.Context, name string, doc board.Document) error {
	if name == "" {
		return ErrEmptyName
	}
	payload, err := board.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots(name, components, updated, payload) VALUES(?,?,?,?)
		ON CONFLICT(name) DO UPDATE SET components=excluded.components, updated=excluded.updated, payload=excluded.payload`,
		name, len(doc.Components), time.Now().UnixNano(), payload)
	if err != nil {
		return fmt.Errorf("store: upsert %q: %w", name, err)
	}
	return nil
}

// Get loads the snapshot stored under name.
func (s *Store) Get(ctx context.Context, name string) (board.Document, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return board.Document{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return board.Document{}, fmt.Errorf("store: select %q: %w", name, err)
	}
	doc, err := board.Parse(payload)
	if err != nil {
		return board.Document{}, fmt.Errorf("store: decode %q: %w", name, err)
	}
	return doc, nil
}

// List returns every snapshot ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, components, updated FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			updated int64
		)
		if err := rows.Scan(&e.Name, &e.Components, &updated); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		e.Updated = time.Unix(0, updated)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return out, nil
}

// Delete removes the snapshot stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("store: delete %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}
