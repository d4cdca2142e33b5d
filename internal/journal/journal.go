package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/fractalxaos/radmond/internal/infrastructure/config"
)

// ErrDisabled is returned by Open when the journal is turned off in the
// configuration.
var ErrDisabled = errors.New("journal: disabled in configuration")

// Event names recorded by the agent.
const (
	EventAgentStart     = "agent_start"
	EventAgentStop      = "agent_stop"
	EventMonitorOnline  = "monitor_online"
	EventMonitorOffline = "monitor_offline"
	EventResetRequested = "reset_requested"
)

// Database configuration constants.
const (
	// dirPermissions is the permission mode for the database directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the database file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectionTimeout bounds the connectivity check at open.
	connectionTimeout = 5 * time.Second

	// defaultBusyTimeout is the SQLite busy timeout in seconds.
	defaultBusyTimeout = 5
)

// Recent query limits.
const (
	defaultRecentLimit = 50
	maxRecentLimit     = 200
)

// schema creates the events table on first open. The journal owns its
// whole database file, so the schema lives here rather than in a
// migration system.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	event      TEXT NOT NULL,
	detail     TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);
`

// Event is one journal entry: an availability transition or agent
// lifecycle marker.
type Event struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Journal persists agent events to a SQLite file so availability history
// survives restarts.
//
// Thread Safety: All methods are safe for concurrent use.
type Journal struct {
	db   *sql.DB
	path string
}

// Open opens (and on first use initialises) the journal database.
//
// It creates the directory if needed, opens the file with WAL mode and a
// busy timeout, verifies connectivity, and ensures the schema exists.
func Open(cfg config.JournalConfig) (*Journal, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	// See: https://github.com/mattn/go-sqlite3#connection-string
	connStr := fmt.Sprintf(
		"file:%s?_busy_timeout=%d&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL",
		cfg.Path,
		busyTimeout*msPerSecond,
	)

	sqlDB, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	// SQLite supports a single writer; keep one connection ready.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying journal database: %w", err)
	}

	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("initialising journal schema: %w", err)
	}

	// Owner read/write only.
	_ = os.Chmod(cfg.Path, filePermissions)

	return &Journal{db: sqlDB, path: cfg.Path}, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("closing journal database: %w", err)
	}
	return nil
}

// HealthCheck verifies the journal database is reachable.
func (j *Journal) HealthCheck(ctx context.Context) error {
	if err := j.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging journal database: %w", err)
	}
	return nil
}

// Path returns the journal database file location.
func (j *Journal) Path() string {
	return j.path
}

// Record inserts one event. The ID and timestamp are generated here.
func (j *Journal) Record(ctx context.Context, event, detail string) error {
	id := "evt-" + uuid.NewString()[:8]
	createdAt := time.Now().UTC().Format(time.RFC3339)

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (id, event, detail, created_at) VALUES (?, ?, ?, ?)`,
		id, event, nullableString(detail), createdAt,
	)
	if err != nil {
		return fmt.Errorf("inserting journal event: %w", err)
	}

	return nil
}

// Recent returns the most recent events, newest first. A non-positive
// limit uses the default page size.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	// rowid breaks ties between events recorded in the same second.
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, event, detail, created_at FROM events
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var evt Event
		var detail sql.NullString
		var createdAt string

		if err := rows.Scan(&evt.ID, &evt.Event, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning journal event: %w", err)
		}

		if detail.Valid {
			evt.Detail = detail.String
		}

		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing journal timestamp %q: %w", createdAt, err)
		}
		evt.CreatedAt = t

		events = append(events, evt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal events: %w", err)
	}

	if events == nil {
		events = []Event{}
	}

	return events, nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
