// Package journal persists per-track sync outcomes and pass summaries in a
// SQLite database. The journal is bookkeeping only: dedup decisions always
// come from the output directory, never from here.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	// SQLite driver.
	_ "github.com/mattn/go-sqlite3"

	"flacsync/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS syncs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at TIMESTAMP NOT NULL,
	artist TEXT NOT NULL,
	title TEXT NOT NULL,
	source_url TEXT NOT NULL,
	status TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS passes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL,
	total INTEGER NOT NULL,
	synced INTEGER NOT NULL,
	duplicates INTEGER NOT NULL,
	failures INTEGER NOT NULL
);
`

// Journal is a SQLite-backed sync history.
type Journal struct {
	db *sql.DB
}

// TrackEntry is one historical per-track outcome.
type TrackEntry struct {
	RecordedAt time.Time
	Artist     string
	Title      string
	SourceURL  string
	Status     string
	Detail     string
}

// Open opens (and if needed creates) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordTrack stores one per-track outcome.
func (j *Journal) RecordTrack(track core.Track, status, detail string) error {
	_, err := j.db.Exec(
		`INSERT INTO syncs (recorded_at, artist, title, source_url, status, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), track.Artist, track.Title, track.SourceURL, status, detail,
	)
	if err != nil {
		return fmt.Errorf("record track: %w", err)
	}
	return nil
}

// RecordPass stores one pass summary.
func (j *Journal) RecordPass(summary core.PassSummary) error {
	_, err := j.db.Exec(
		`INSERT INTO passes (started_at, finished_at, total, synced, duplicates, failures) VALUES (?, ?, ?, ?, ?, ?)`,
		summary.StartedAt.UTC(), summary.FinishedAt.UTC(),
		summary.Total, summary.Synced, summary.Duplicates, summary.Failures,
	)
	if err != nil {
		return fmt.Errorf("record pass: %w", err)
	}
	return nil
}

// RecentTracks returns the newest per-track entries, most recent first.
func (j *Journal) RecentTracks(limit int) ([]TrackEntry, error) {
	rows, err := j.db.Query(
		`SELECT recorded_at, artist, title, source_url, status, detail FROM syncs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []TrackEntry
	for rows.Next() {
		var entry TrackEntry
		if err := rows.Scan(&entry.RecordedAt, &entry.Artist, &entry.Title,
			&entry.SourceURL, &entry.Status, &entry.Detail); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
