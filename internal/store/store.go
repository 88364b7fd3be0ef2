// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cubelog/cubelog/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// dsnParams enables foreign keys for cascades, waits on a busy database, and
// makes every transaction take the write lock when it begins.
const dsnParams = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"

// Store wraps SQLite access for sessions, solves, cubes and user settings.
// Writes touching a session's solves are serialized per session.
type Store struct {
	db    *sql.DB
	locks *sessionLocks
	now   func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storageErr("create data dir", err)
	}
	db, err := sql.Open("sqlite", path+dsnParams)
	if err != nil {
		return nil, storageErr("open database", err)
	}
	store := &Store{db: db, locks: newSessionLocks(), now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, storageErr("migrate", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cubes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cube_type TEXT NOT NULL,
			brand TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			purchase_date TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			event_id TEXT NOT NULL,
			cube_id INTEGER REFERENCES cubes(id) ON DELETE SET NULL,
			notes TEXT NOT NULL DEFAULT '',
			solve_count INTEGER NOT NULL DEFAULT 0,
			best_single INTEGER,
			worst_single INTEGER,
			session_mean INTEGER,
			ao5 INTEGER,
			ao12 INTEGER,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS solves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			solve_number INTEGER NOT NULL,
			time_ms INTEGER NOT NULL,
			scramble TEXT NOT NULL DEFAULT '',
			penalty TEXT NOT NULL DEFAULT '' CHECK (penalty IN ('', '+2', 'DNF')),
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			wca_id TEXT NOT NULL,
			wca_name TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_solves_session_number ON solves(session_id, solve_number);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_event_date ON sessions(event_id, date);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// withTx runs fn in a write transaction and rolls back when it fails.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(op, err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return storageErr(op, err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStorageUnavailable, err)
}

// notFound maps sql.ErrNoRows to model.ErrNotFound and wraps everything else.
func notFound(op string, what string, id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, model.ErrNotFound)
	}
	return storageErr(op, err)
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	out := v.Int64
	return &out
}

func nullFloatMs(v sql.NullFloat64) *int64 {
	if !v.Valid {
		return nil
	}
	out := int64(v.Float64 + 0.5)
	return &out
}

type sessionLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: map[int64]*sync.Mutex{}}
}

// lock blocks until the session's writer lock is held and returns its release func.
func (l *sessionLocks) lock(sessionID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
