package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/doxa/pkg/doxa/trace"
)

func TestSchemaCreationIdempotent(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "trace.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Open database: %v", err)
	}
	defer db.Close()

	for i := 0; i < 3; i++ {
		if err := initSchema(ctx, db); err != nil {
			t.Fatalf("initSchema iteration %d: %v", i, err)
		}
	}

	var count int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&count)
	if err != nil {
		t.Fatalf("Count tables: %v", err)
	}
	if count != 2 { // sessions, events
		t.Errorf("Expected 2 tables, got %d", count)
	}
}

func TestRecordAndReadBack(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "trace.db")

	st, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	if st.Session() == "" {
		t.Fatal("session id should be set")
	}

	st.Record(trace.Event{
		Time:     time.Now(),
		Kind:     trace.KindQuery,
		Detail:   "Know<1> [f(n) == n]",
		Verdict:  true,
		Duration: 42 * time.Microsecond,
	})
	st.Record(trace.Event{
		Time:     time.Now(),
		Kind:     trace.KindAddToKB,
		Detail:   "[f(n) == n]",
		Accepted: true,
	})
	if err := st.Err(); err != nil {
		t.Fatalf("Record: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM events WHERE session_id = ?", st.Session()).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 events, got %d", n)
	}

	var kind string
	var verdict int
	err = db.QueryRow(
		"SELECT kind, verdict FROM events WHERE session_id = ? AND seq = 1", st.Session()).
		Scan(&kind, &verdict)
	if err != nil {
		t.Fatal(err)
	}
	if kind != trace.KindQuery || verdict != 1 {
		t.Errorf("event 1 = (%s, %d), want (query, 1)", kind, verdict)
	}
}

func TestSessionsAreDistinct(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "trace.db")

	s1, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	s1.Close()
	s2, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	if s1.Session() == s2.Session() {
		t.Error("two runs should get distinct session ids")
	}
}
