package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/nikbrunner/tabdeck/internal/model"
)

const currentSchemaVersion = 1

// SQLiteStore implements Store using a SQLite database with an explicit
// position column per sibling level. Moves are transactional: the gap left
// by the item is closed and a gap at the target index is opened inside one
// transaction, so a crash never leaves a level half-shifted.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	events chan Event
}

// NewSQLiteStore opens (or creates) a SQLite store at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &SQLiteStore{
		db:     db,
		path:   path,
		events: make(chan Event, 16),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Events implements Notifier.
func (s *SQLiteStore) Events() <-chan Event {
	return s.events
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	return nil
}

// migrateV1 creates the initial schema.
func (s *SQLiteStore) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			kind INTEGER NOT NULL DEFAULT 0,
			parent_id TEXT,
			position INTEGER NOT NULL,
			FOREIGN KEY (parent_id) REFERENCES items(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_items_parent_id ON items(parent_id);
		CREATE INDEX IF NOT EXISTS idx_items_position ON items(position);

		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, parentID *string) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, url, kind, parent_id
		FROM items
		WHERE ifnull(parent_id, '') = ifnull(?, '')
		ORDER BY position
	`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var it model.Item
		var parent sql.NullString
		if err := rows.Scan(&it.ID, &it.Title, &it.URL, &it.Kind, &parent); err != nil {
			return nil, err
		}
		if parent.Valid {
			it.ParentID = &parent.String
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Move implements Store.
func (s *SQLiteStore) Move(ctx context.Context, id string, newIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var parent sql.NullString
	var oldIndex int
	err = tx.QueryRowContext(ctx,
		"SELECT parent_id, position FROM items WHERE id = ?", id,
	).Scan(&parent, &oldIndex)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return err
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM items WHERE ifnull(parent_id, '') = ifnull(?, '')", parent,
	).Scan(&count); err != nil {
		return err
	}
	if newIndex < 0 || newIndex >= count {
		return fmt.Errorf("%w: %d of %d siblings", ErrInvalidIndex, newIndex, count)
	}
	if newIndex == oldIndex {
		return nil
	}

	// Park the moved row outside the live range, close the gap it left,
	// open a gap at the target, then land the row.
	if _, err := tx.ExecContext(ctx,
		"UPDATE items SET position = -1 WHERE id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET position = position - 1
		WHERE ifnull(parent_id, '') = ifnull(?, '') AND position > ?
	`, parent, oldIndex); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET position = position + 1
		WHERE ifnull(parent_id, '') = ifnull(?, '') AND position >= ?
	`, parent, newIndex); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE items SET position = ? WHERE id = ?", newIndex, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	var parentID *string
	if parent.Valid {
		parentID = &parent.String
	}
	s.emit(Event{Kind: EventMoved, ItemID: id, ParentID: parentID, OldIndex: oldIndex, NewIndex: newIndex})
	return nil
}

// Create implements Store.
func (s *SQLiteStore) Create(ctx context.Context, item model.Item, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM items WHERE ifnull(parent_id, '') = ifnull(?, '')", item.ParentID,
	).Scan(&count); err != nil {
		return err
	}
	if index < 0 || index > count {
		return fmt.Errorf("%w: %d of %d siblings", ErrInvalidIndex, index, count)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET position = position + 1
		WHERE ifnull(parent_id, '') = ifnull(?, '') AND position >= ?
	`, item.ParentID, index); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO items (id, title, url, kind, parent_id, position)
		VALUES (?, ?, ?, ?, ?, ?)
	`, item.ID, item.Title, item.URL, item.Kind, item.ParentID, index); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.emit(Event{Kind: EventCreated, ItemID: item.ID, ParentID: item.ParentID, NewIndex: index})
	return nil
}

// Remove implements Store.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var parent sql.NullString
	var oldIndex int
	err = tx.QueryRowContext(ctx,
		"SELECT parent_id, position FROM items WHERE id = ?", id,
	).Scan(&parent, &oldIndex)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET position = position - 1
		WHERE ifnull(parent_id, '') = ifnull(?, '') AND position > ?
	`, parent, oldIndex); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	var parentID *string
	if parent.Valid {
		parentID = &parent.String
	}
	s.emit(Event{Kind: EventRemoved, ItemID: id, ParentID: parentID, OldIndex: oldIndex})
	return nil
}

// emit delivers an event without ever blocking a store mutation.
func (s *SQLiteStore) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}
