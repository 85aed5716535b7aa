// doxa-analytics reads a trace database and prints per-session activity:
// how many queries ran, how they came out, and how long they took.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

type sessionReport struct {
	ID        string
	StartedAt string
	Queries   int64
	Yes       int64
	Axioms    int64
	Rejected  int64
	AvgMicros float64
}

func main() {
	var (
		dbPath = flag.String("db", "", "Trace database path (required)")
	)
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("--db required")
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	reports, err := collect(db)
	if err != nil {
		log.Fatal(err)
	}

	for _, r := range reports {
		fmt.Printf("session %s (started %s)\n", r.ID, r.StartedAt)
		fmt.Printf("  queries: %d (%d yes, %d no), avg %.0f us\n", r.Queries, r.Yes, r.Queries-r.Yes, r.AvgMicros)
		fmt.Printf("  axioms:  %d (%d rejected)\n", r.Axioms, r.Rejected)
	}
}

func collect(db *sql.DB) ([]sessionReport, error) {
	rows, err := db.Query(`SELECT id, started_at FROM sessions ORDER BY started_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []sessionReport
	for rows.Next() {
		var r sessionReport
		if err := rows.Scan(&r.ID, &r.StartedAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range reports {
		r := &reports[i]
		err := db.QueryRow(
			`SELECT COUNT(*), COALESCE(SUM(verdict), 0), COALESCE(AVG(duration_us), 0)
			 FROM events WHERE session_id = ? AND kind = 'query'`, r.ID).
			Scan(&r.Queries, &r.Yes, &r.AvgMicros)
		if err != nil {
			return nil, err
		}
		err = db.QueryRow(
			`SELECT COUNT(*), COALESCE(SUM(1 - accepted), 0)
			 FROM events WHERE session_id = ? AND kind = 'kb_add'`, r.ID).
			Scan(&r.Axioms, &r.Rejected)
		if err != nil {
			return nil, err
		}
	}
	return reports, nil
}
