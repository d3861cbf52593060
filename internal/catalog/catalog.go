// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog records generated reports in a SQLite database so past
// runs can be listed and searched by title or keynote content.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const (
	dbFile            = "reports.db"
	defaultMaxResults = 20
)

// Entry is one recorded report generation.
type Entry struct {
	// ID is the run identifier. Record assigns a fresh UUID when empty.
	ID string `json:"id" yaml:"id"`

	// PaperID is the version-stripped arXiv ID.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// URL is the paper's entry URL.
	URL string `json:"url" yaml:"url"`

	// Language is the report language name.
	Language string `json:"language" yaml:"language"`

	// Mode is the report mode ("simple" or "detailed").
	Mode string `json:"mode" yaml:"mode"`

	// Keynote is the structured paper-level note carried by the report.
	Keynote string `json:"keynote,omitempty" yaml:"keynote,omitempty"`

	// OutputPath is where the rendered PDF was written.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// CreatedAt is when the report was recorded. Record fills it when zero.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Store manages the report catalog SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the catalog database at dir/reports.db and
// creates the schema if it does not exist. maxResults caps List and
// Search result counts when the caller passes no limit; zero selects the
// default of 20.
func NewStore(dir string, maxResults int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			paper_id TEXT NOT NULL,
			title TEXT NOT NULL,
			url TEXT,
			language TEXT NOT NULL,
			mode TEXT NOT NULL,
			keynote TEXT,
			output_path TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_paper_id ON reports(paper_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='reports_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE reports_fts USING fts5(title, keynote, content=reports, content_rowid=rowid)`,
			`CREATE TRIGGER reports_ai AFTER INSERT ON reports BEGIN
				INSERT INTO reports_fts(rowid, title, keynote) VALUES (new.rowid, new.title, new.keynote);
			END`,
			`CREATE TRIGGER reports_ad AFTER DELETE ON reports BEGIN
				INSERT INTO reports_fts(reports_fts, rowid, title, keynote) VALUES('delete', old.rowid, old.title, old.keynote);
			END`,
			`CREATE TRIGGER reports_au AFTER UPDATE ON reports BEGIN
				INSERT INTO reports_fts(reports_fts, rowid, title, keynote) VALUES('delete', old.rowid, old.title, old.keynote);
				INSERT INTO reports_fts(rowid, title, keynote) VALUES (new.rowid, new.title, new.keynote);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// Record inserts one report entry and returns it with the assigned ID and
// timestamp filled in.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, paper_id, title, url, language, mode, keynote, output_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PaperID, e.Title, e.URL, e.Language, e.Mode, e.Keynote,
		e.OutputPath, e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("recording report: %w", err)
	}
	return e, nil
}

// List returns the most recent entries, newest first. A non-positive
// limit uses the store default.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, paper_id, title, url, language, mode, keynote, output_path, created_at
		 FROM reports ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search runs an FTS5 match over titles and keynotes, ranked by
// relevance. A non-positive limit uses the store default.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.paper_id, r.title, r.url, r.language, r.mode, r.keynote, r.output_path, r.created_at
		 FROM reports_fts
		 JOIN reports r ON r.rowid = reports_fts.rowid
		 WHERE reports_fts MATCH ?
		 ORDER BY reports_fts.rank LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching reports: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			url     sql.NullString
			keynote sql.NullString
			created string
		)
		if err := rows.Scan(&e.ID, &e.PaperID, &e.Title, &url, &e.Language,
			&e.Mode, &keynote, &e.OutputPath, &created); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		if url.Valid {
			e.URL = url.String
		}
		if keynote.Valid {
			e.Keynote = keynote.String
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
