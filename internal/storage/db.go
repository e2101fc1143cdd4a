// Package storage records tracking sessions in SQLite: the entity state at
// the end of a run, every target selection made, and the corrector weights.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/tracksight/internal/timeutil"
)

// ErrSessionNotFound is returned when a session id has no sessions row.
var ErrSessionNotFound = errors.New("storage: session not found")

// Pragmas applied to every pooled connection.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
	"foreign_keys(1)",
}

// DB is a tracksight session database. It embeds *sql.DB so callers can
// run ad hoc queries alongside the typed helpers.
type DB struct {
	*sql.DB
	clock timeutil.Clock
}

// dsn appends the pragma list to path in the form modernc.org/sqlite
// applies on each new connection.
func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return "file:" + path + "?" + q.Encode()
}

// OpenDB opens the database without touching the schema.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", path, err)
	}
	return &DB{DB: db, clock: timeutil.RealClock{}}, nil
}

// NewDB opens the database and migrates it to the latest schema.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// SetClock replaces the clock used to stamp new sessions.
func (db *DB) SetClock(c timeutil.Clock) {
	if c == nil {
		c = timeutil.RealClock{}
	}
	db.clock = c
}

// Session is one recorded run.
type Session struct {
	ID        string
	StartedAt time.Time
	Notes     string
}

// StartSession creates a new session with a random id.
func (db *DB) StartSession(notes string) (Session, error) {
	s := Session{
		ID:        uuid.NewString(),
		StartedAt: db.clock.Now().UTC(),
		Notes:     notes,
	}
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, started_unix_nano, notes) VALUES (?, ?, ?)`,
		s.ID, s.StartedAt.UnixNano(), s.Notes,
	)
	if err != nil {
		return Session{}, fmt.Errorf("failed to insert session: %w", err)
	}
	return s, nil
}

// Sessions lists sessions, most recent first.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(`SELECT session_id, started_unix_nano, notes FROM sessions ORDER BY started_unix_nano DESC, session_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var started int64
		if err := rows.Scan(&s.ID, &started, &s.Notes); err != nil {
			return nil, err
		}
		s.StartedAt = time.Unix(0, started).UTC()
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetSession returns one session by id.
func (db *DB) GetSession(id string) (Session, error) {
	var s Session
	var started int64
	err := db.QueryRow(`SELECT session_id, started_unix_nano, notes FROM sessions WHERE session_id = ?`, id).
		Scan(&s.ID, &started, &s.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return Session{}, err
	}
	s.StartedAt = time.Unix(0, started).UTC()
	return s, nil
}

// LatestSession returns the most recently started session.
func (db *DB) LatestSession() (Session, error) {
	sessions, err := db.Sessions()
	if err != nil {
		return Session{}, err
	}
	if len(sessions) == 0 {
		return Session{}, ErrSessionNotFound
	}
	return sessions[0], nil
}

// DeleteSession removes a session and everything recorded under it.
func (db *DB) DeleteSession(id string) error {
	res, err := db.Exec(`DELETE FROM sessions WHERE session_id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

func requireSession(q queryRower, id string) error {
	var one int
	err := q.QueryRow(`SELECT 1 FROM sessions WHERE session_id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return err
}
