// Package localstate persists small key-value state across sessions in
// an embedded sqlite file, the desktop analog of the browser's
// localStorage. Today it holds the authenticated user's identifier and
// access token.
package localstate

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// Well-known keys.
const (
	KeyUserID      = "session.user_id"
	KeyAccessToken = "session.access_token"
)

// DB is a key-value store backed by a single sqlite file.
type DB struct {
	db *sqlx.DB
}

// Open opens (creating if necessary) the state file at path. Use
// ":memory:" for a throwaway store in tests.
func Open(path string) (*DB, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init state schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Get returns the value for key. found is false when the key is absent.
func (d *DB) Get(key string) (value string, found bool, err error) {
	err = d.db.Get(&value, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, overwriting any previous value.
func (d *DB) Set(key, value string) error {
	_, err := d.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (d *DB) Delete(key string) error {
	if _, err := d.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (d *DB) Close() error {
	return d.db.Close()
}
