// Package storage opens the shared SQLite engine handle.
//
// The handle is acquired once at process startup, handed to both stores, and
// released on shutdown. Store Close methods deliberately do not close it.
package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (creating if needed) the SQLite database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Immediate transactions take the write lock at BEGIN, so the stores'
	// read-then-write upserts serialize under concurrent dispatch instead
	// of deadlocking on a snapshot upgrade.
	dsn := path + "?_txlock=immediate"
	if strings.Contains(path, "?") {
		dsn = path + "&_txlock=immediate"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty
	// database, so pin the pool to a single connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// SQLite-specific pragmas
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return db, nil
}
