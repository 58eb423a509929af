// Package cache provides a small on-disk response cache backed by
// database/sql over mattn/go-sqlite3 — the teacher's own dependency,
// previously used by readers.go's SqliteReader to read bdrmapit
// annotation databases for the active-probing simulator. That use case
// doesn't survive the port to MRT ingestion, but the structural
// pattern — open a *sql.DB, prepare a simple single-table schema,
// scan rows — does: here it backs the HTTP response cache S1 needs
// (grounded on original_source's requests_cache.CachedSession). The
// ROA/incident/topology feeds are read from local files named on the
// command line and do not pass through this cache.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
}

// Open creates (if absent) a single "responses" table at path and
// returns a Store wrapping it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS responses (
		url TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		fetched_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Get satisfies source.HTTPCache.
func (s *Store) Get(url string) ([]byte, bool, error) {
	var body []byte
	err := s.db.QueryRow(`SELECT body FROM responses WHERE url = ?`, url).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// Put satisfies source.HTTPCache.
func (s *Store) Put(url string, body []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO responses (url, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		url, body, time.Now().UTC().Unix(),
	)
	return err
}
