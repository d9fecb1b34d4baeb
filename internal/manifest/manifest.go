// Package manifest persists the artifact set of the last successful build
// per scope so the next build can compute its orphans exactly.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/doxidize/internal/artifacts"
	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
)

// Scopes the commands record.
const (
	ScopeAPI      = "api"
	ScopeSite     = "site"
	ScopeExamples = "examples"
)

// Record is the manifest of one build for one scope.
type Record struct {
	Scope     string
	BuildID   string
	Timestamp time.Time
	Artifacts *artifacts.Set
}

// Store is a SQLite backed manifest store.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the database at path. Use ":memory:" for
// an in-memory store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create state directory").
				WithContext("path", path).
				Build()
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to open state database").
			WithContext("path", path).
			Build()
	}
	// A single connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to initialize state database").
			WithContext("path", path).
			Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		scope TEXT PRIMARY KEY,
		build_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS artifacts (
		scope TEXT NOT NULL,
		path TEXT NOT NULL,
		is_dir INTEGER NOT NULL,
		PRIMARY KEY (scope, path)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the record of rec.Scope.
func (s *Store) Save(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(ctx, rec); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to save build manifest").
			WithContext("scope", rec.Scope).
			WithContext("build_id", rec.BuildID).
			Build()
	}
	return nil
}

func (s *Store) save(ctx context.Context, rec Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM artifacts WHERE scope = ?", rec.Scope); err != nil {
		return fmt.Errorf("clear artifacts: %w", err)
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO builds (scope, build_id, timestamp) VALUES (?, ?, ?) ON CONFLICT(scope) DO UPDATE SET build_id = excluded.build_id, timestamp = excluded.timestamp",
		rec.Scope, rec.BuildID, ts.Unix(),
	); err != nil {
		return fmt.Errorf("upsert build: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO artifacts (scope, path, is_dir) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	if rec.Artifacts != nil {
		for _, p := range rec.Artifacts.Dirs() {
			if _, err := stmt.ExecContext(ctx, rec.Scope, p, 1); err != nil {
				return fmt.Errorf("insert dir %s: %w", p, err)
			}
		}
		for _, p := range rec.Artifacts.Files() {
			if _, err := stmt.ExecContext(ctx, rec.Scope, p, 0); err != nil {
				return fmt.Errorf("insert file %s: %w", p, err)
			}
		}
	}
	return tx.Commit()
}

// Previous returns the last saved record of scope. ok is false when the
// scope was never recorded.
func (s *Store) Previous(ctx context.Context, scope string) (rec *Record, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec = &Record{Scope: scope, Artifacts: artifacts.New()}
	var ts int64
	err = s.db.QueryRowContext(ctx, "SELECT build_id, timestamp FROM builds WHERE scope = ?", scope).Scan(&rec.BuildID, &ts)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read build manifest").
			WithContext("scope", scope).
			Build()
	}
	rec.Timestamp = time.Unix(ts, 0)

	rows, err := s.db.QueryContext(ctx, "SELECT path, is_dir FROM artifacts WHERE scope = ?", scope)
	if err != nil {
		return nil, false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read build manifest").
			WithContext("scope", scope).
			Build()
	}
	defer rows.Close()

	for rows.Next() {
		var (
			path  string
			isDir bool
		)
		if err := rows.Scan(&path, &isDir); err != nil {
			return nil, false, fmt.Errorf("scan artifact: %w", err)
		}
		if isDir {
			rec.Artifacts.AddDir(path)
		} else {
			rec.Artifacts.AddFile(path)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate artifacts: %w", err)
	}
	return rec, true, nil
}

// Forget drops every record. clean uses it after removing the output.
func (s *Store) Forget(ctx context.Context, scopes ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, scope := range scopes {
		for _, q := range []string{"DELETE FROM artifacts WHERE scope = ?", "DELETE FROM builds WHERE scope = ?"} {
			if _, err := s.db.ExecContext(ctx, q, scope); err != nil {
				return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to forget build manifest").
					WithContext("scope", scope).
					Build()
			}
		}
	}
	return nil
}
