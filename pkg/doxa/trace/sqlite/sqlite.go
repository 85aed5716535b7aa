// Package sqlite persists trace events to a SQLite database. Each process
// run is one session row keyed by a ULID; events reference their session.
// The database records query history only, never knowledge-base contents.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/cognicore/doxa/pkg/doxa/trace"
)

// Store is a trace.Sink backed by SQLite.
type Store struct {
	db      *sql.DB
	session string

	mu      sync.Mutex
	seq     int64
	lastErr error
}

// Open opens or creates the trace database at path and starts a session.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	session := ulid.MustNew(ulid.Now(), ulid.Monotonic(rand.Reader, 0)).String()
	if _, err := db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at) VALUES (?, ?)`,
		session, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, session: session}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			at TEXT NOT NULL,
			kind TEXT NOT NULL,
			ident TEXT NOT NULL,
			detail TEXT NOT NULL,
			accepted INTEGER NOT NULL,
			verdict INTEGER NOT NULL,
			duration_us INTEGER NOT NULL,
			PRIMARY KEY (session_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind ON events (kind)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Session returns the session ULID.
func (s *Store) Session() string { return s.session }

// Record implements trace.Sink. Failures are retained for Err rather than
// reported, per the sink contract.
func (s *Store) Record(e trace.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	_, err := s.db.Exec(
		`INSERT INTO events (session_id, seq, at, kind, ident, detail, accepted, verdict, duration_us)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.session, s.seq, e.Time.UTC().Format(time.RFC3339Nano),
		e.Kind, e.ID, e.Detail, boolInt(e.Accepted), boolInt(e.Verdict),
		e.Duration.Microseconds())
	if err != nil {
		s.lastErr = err
	}
}

// Err returns the last insert error, if any.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
