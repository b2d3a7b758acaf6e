// Package history records recently opened files and past filter runs in
// SQLite.
package history

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// RecentFile is a file opened in the viewer
type RecentFile struct {
	Path     string
	Sheet    string
	OpenedAt time.Time
}

// Run is one evaluation of a rule set
type Run struct {
	ID           int64
	Path         string
	Sheet        string
	Expression   string
	Combinator   string
	OriginalRows int
	FilteredRows int
	SkippedRules int
	Duration     time.Duration
	RanAt        time.Time
}

// Store manages history persistence
type Store struct {
	db        *sql.DB
	maxRecent int
	maxRuns   int
	now       func() time.Time
}

// NewStore opens (or creates) the history database. maxRecent and maxRuns
// bound how many rows are kept; zero means unbounded.
func NewStore(path string, maxRecent, maxRuns int) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// Create schema
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db, maxRecent: maxRecent, maxRuns: maxRuns, now: time.Now}, nil
}

// AddRecent records that path was opened. Reopening a file moves it to the
// top.
func (s *Store) AddRecent(path, sheet string) error {
	_, err := s.db.Exec(`
		INSERT INTO recent_files (path, sheet, opened_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET sheet = excluded.sheet, opened_at = excluded.opened_at`,
		path, sheet, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record recent file: %w", err)
	}

	if s.maxRecent > 0 {
		_, err = s.db.Exec(`
			DELETE FROM recent_files WHERE path NOT IN (
				SELECT path FROM recent_files ORDER BY opened_at DESC LIMIT ?
			)`, s.maxRecent)
		if err != nil {
			return fmt.Errorf("failed to trim recent files: %w", err)
		}
	}
	return nil
}

// Recent returns recently opened files, newest first
func (s *Store) Recent(limit int) ([]RecentFile, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT path, sheet, opened_at
		FROM recent_files
		ORDER BY opened_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []RecentFile
	for rows.Next() {
		var f RecentFile
		var openedAt int64
		if err := rows.Scan(&f.Path, &f.Sheet, &openedAt); err != nil {
			return nil, err
		}
		f.OpenedAt = time.Unix(0, openedAt)
		files = append(files, f)
	}
	return files, rows.Err()
}

// AddRun records a filter run
func (s *Store) AddRun(run Run) error {
	ranAt := run.RanAt
	if ranAt.IsZero() {
		ranAt = s.now()
	}
	_, err := s.db.Exec(`
		INSERT INTO filter_runs
		(path, sheet, expression, combinator, original_rows, filtered_rows, skipped_rules, duration_ms, ran_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Path,
		run.Sheet,
		run.Expression,
		run.Combinator,
		run.OriginalRows,
		run.FilteredRows,
		run.SkippedRules,
		run.Duration.Milliseconds(),
		ranAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record filter run: %w", err)
	}

	if s.maxRuns > 0 {
		_, err = s.db.Exec(`
			DELETE FROM filter_runs WHERE id NOT IN (
				SELECT id FROM filter_runs ORDER BY ran_at DESC, id DESC LIMIT ?
			)`, s.maxRuns)
		if err != nil {
			return fmt.Errorf("failed to trim filter runs: %w", err)
		}
	}
	return nil
}

// Runs returns past filter runs, newest first
func (s *Store) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, path, sheet, expression, combinator, original_rows,
		       filtered_rows, skipped_rules, duration_ms, ran_at
		FROM filter_runs
		ORDER BY ran_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query filter runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMs, ranAt int64

		err := rows.Scan(
			&r.ID,
			&r.Path,
			&r.Sheet,
			&r.Expression,
			&r.Combinator,
			&r.OriginalRows,
			&r.FilteredRows,
			&r.SkippedRules,
			&durationMs,
			&ranAt,
		)
		if err != nil {
			return nil, err
		}

		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.RanAt = time.Unix(0, ranAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
