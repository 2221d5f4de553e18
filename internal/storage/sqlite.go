// ABOUTME: SQLite storage implementation for the run cache
// ABOUTME: Provides local-only persistence using pure Go SQLite driver

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harper/stride/internal/models"
	_ "modernc.org/sqlite"
)

const lastSyncedKey = "last_synced"

// SQLiteDB implements Repository with a local SQLite database.
type SQLiteDB struct {
	db   *sql.DB
	path string
}

// Compile-time check that SQLiteDB implements Repository.
var _ Repository = (*SQLiteDB)(nil)

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "stride", "stride.db")
}

// NewSQLiteDB creates a new SQLite database at the given path.
// Creates the directory and database file if they don't exist.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil { //nolint:gosec // 0750 is appropriate for user data directory
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteDB{db: db, path: path}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteDB) Path() string {
	return s.path
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			distance_km REAL NOT NULL DEFAULT 0,
			duration_sec INTEGER NOT NULL DEFAULT 0,
			start_iso TEXT,
			filename TEXT,
			pace TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_runs_position ON runs(position);

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Reset clears all cached runs and sync state.
func (s *SQLiteDB) Reset() error {
	_, err := s.db.Exec("DELETE FROM runs; DELETE FROM meta;")
	return err
}

// ReplaceRuns swaps the cached collection for runs, keeping their order.
func (s *SQLiteDB) ReplaceRuns(runs []models.RunRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM runs"); err != nil {
		return fmt.Errorf("clear runs: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO runs (id, position, distance_km, duration_sec, start_iso, filename, pace)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range runs {
		if _, err := stmt.Exec(r.ID, i, r.DistanceKm, r.DurationSec, r.StartISO, r.Filename, r.Pace); err != nil {
			return fmt.Errorf("insert run %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the cached runs in the order they were stored.
func (s *SQLiteDB) ListRuns() ([]models.RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, distance_km, duration_sec, start_iso, filename, pace
		 FROM runs ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []models.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns a cached run by id.
func (s *SQLiteDB) GetRun(id string) (*models.RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, distance_km, duration_sec, start_iso, filename, pace
		 FROM runs WHERE id = ?`,
		id,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// MarkSynced records when the cache last matched the backend.
func (s *SQLiteDB) MarkSynced(at time.Time) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		lastSyncedKey, at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record sync time: %w", err)
	}
	return nil
}

// LastSynced returns when the cache last matched the backend, or the zero time.
func (s *SQLiteDB) LastSynced() (time.Time, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", lastSyncedKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read sync time: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse sync time: %w", err)
	}
	return t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.RunRecord, error) {
	var r models.RunRecord
	var start, filename, pace sql.NullString
	err := row.Scan(&r.ID, &r.DistanceKm, &r.DurationSec, &start, &filename, &pace)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.StartISO = nullable(start)
	r.Filename = nullable(filename)
	r.Pace = nullable(pace)
	return &r, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
