// Package store persists checkmate aggregates in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aanduque/checkmate/internal/tag"
	"github.com/aanduque/checkmate/internal/task"
	_ "modernc.org/sqlite"
)

const currentVersion = 1

// ErrNotFound is returned by FindByID when no row matches. It matches
// task.ErrNotFound under errors.Is.
var ErrNotFound = fmt.Errorf("record %w", task.ErrNotFound)

// DefaultCapacity seeds the untagged category on first run.
const DefaultCapacity = 10

type Store struct {
	db  *sql.DB
	loc *time.Location
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, loc: time.UTC}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

// SetLocation sets the time zone sprints are rebuilt in. Defaults to UTC.
func (s *Store) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS tags (
		id        TEXT PRIMARY KEY,
		name      TEXT NOT NULL UNIQUE,
		color     TEXT NOT NULL DEFAULT '#6C63FF',
		capacity  INTEGER NOT NULL CHECK (capacity > 0)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id              TEXT PRIMARY KEY,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'active',
		sprint_id       TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL,
		completed_at    TEXT,
		canceled_at     TEXT,
		recurrence      TEXT NOT NULL DEFAULT '',
		parent_id       TEXT NOT NULL DEFAULT '',
		sort_order      INTEGER NOT NULL DEFAULT 0,
		skip_kind       TEXT NOT NULL DEFAULT '',
		skipped_at      TEXT,
		skip_return_at  TEXT,
		skip_comment_id TEXT NOT NULL DEFAULT '',
		skip_returned   INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_sprint ON tasks(sprint_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

	CREATE TABLE IF NOT EXISTS task_effort (
		task_id   TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		category  TEXT NOT NULL,
		points    INTEGER NOT NULL,
		PRIMARY KEY (task_id, category)
	);

	CREATE TABLE IF NOT EXISTS task_sprint_history (
		task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		sprint_id  TEXT NOT NULL,
		PRIMARY KEY (task_id, seq)
	);

	CREATE TABLE IF NOT EXISTS task_comments (
		id                  TEXT PRIMARY KEY,
		task_id             TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		seq                 INTEGER NOT NULL,
		body                TEXT NOT NULL,
		created_at          TEXT NOT NULL,
		updated_at          TEXT,
		skip_justification  INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS focus_sessions (
		id          TEXT PRIMARY KEY,
		task_id     TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		status      TEXT NOT NULL,
		started_at  TEXT NOT NULL,
		ended_at    TEXT,
		rating      TEXT NOT NULL DEFAULT '',
		notes       TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started ON focus_sessions(started_at);

	CREATE TABLE IF NOT EXISTS sprints (
		id        TEXT PRIMARY KEY,
		start_at  TEXT NOT NULL,
		end_at    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sprint_capacity (
		sprint_id  TEXT NOT NULL REFERENCES sprints(id) ON DELETE CASCADE,
		tag_id     TEXT NOT NULL,
		points     INTEGER NOT NULL CHECK (points > 0),
		PRIMARY KEY (sprint_id, tag_id)
	);

	CREATE TABLE IF NOT EXISTS routines (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		priority     INTEGER NOT NULL,
		activation   TEXT NOT NULL DEFAULT '',
		filter       TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	u := tag.Untagged(DefaultCapacity)
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO tags (id, name, color, capacity) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, u.Color, u.Capacity,
	)
	return err
}

// DefaultDBPath returns ~/.config/checkmate/checkmate.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "checkmate", "checkmate.db"), nil
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
