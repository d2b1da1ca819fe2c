// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library is the boundary adapter for the local index of papers
// the user already owns. The streamer consults it before spending
// network calls on link resolution: an owned DOI answers immediately
// with its stored location. The index records ownership only; resolved
// links are never cached here.
package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store manages the owned-papers SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, creating the schema if it
// does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating library directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening library database: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS papers (
		doi       TEXT PRIMARY KEY,
		title     TEXT NOT NULL DEFAULT '',
		location  TEXT NOT NULL,
		added_at  TIMESTAMP NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating library schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add records ownership of a paper. Re-adding a DOI updates its location.
func (s *Store) Add(ctx context.Context, doi, title, location string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO papers (doi, title, location, added_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(doi) DO UPDATE SET title = excluded.title, location = excluded.location`,
		doi, title, location, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording paper %s: %w", doi, err)
	}
	return nil
}

// DownloadLink returns the stored location for doi and whether it is owned.
func (s *Store) DownloadLink(ctx context.Context, doi string) (string, bool) {
	var location string
	err := s.db.QueryRowContext(ctx, `SELECT location FROM papers WHERE doi = ?`, doi).Scan(&location)
	if err != nil {
		return "", false
	}
	return location, true
}

// Count returns the number of owned papers.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}
