// Package store caches the knowledge base in SQLite, so a tuned or
// extended knowledge base can be shared between runs without the JSON
// sources.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the knowledge-base tables.
type Store struct {
	db *sql.DB
}

// dsnOptions turns on WAL and foreign keys with a 30s busy timeout.
const dsnOptions = "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000"

// NewStore opens the SQLite database at dbPath without migrating it.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: open %s: %w", dbPath, err)
	}
	return &Store{db: db}, nil
}

// Open opens the database at dbPath and migrates it.
func Open(dbPath string) (*Store, error) {
	s, err := NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the connection pool, mainly to tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the knowledge-base tables if they are missing.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS symbols (
  id              INTEGER PRIMARY KEY,
  name            TEXT NOT NULL UNIQUE,
  documentation   TEXT NOT NULL DEFAULT '',
  filetype        TEXT NOT NULL,
  ordinal         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS required_keywords (
  id              INTEGER PRIMARY KEY,
  filetype        TEXT NOT NULL,
  name            TEXT NOT NULL,
  ordinal         INTEGER NOT NULL,
  UNIQUE (filetype, name)
);

CREATE TABLE IF NOT EXISTS list_rules (
  filetype        TEXT PRIMARY KEY,
  separator       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS list_variables (
  id              INTEGER PRIMARY KEY,
  filetype        TEXT NOT NULL REFERENCES list_rules(filetype) ON DELETE CASCADE,
  name            TEXT NOT NULL,
  ordinal         INTEGER NOT NULL,
  UNIQUE (filetype, name)
);

CREATE TABLE IF NOT EXISTS meta (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_symbols_filetype ON symbols(filetype, ordinal);
CREATE INDEX IF NOT EXISTS idx_required_filetype ON required_keywords(filetype, ordinal);
`
