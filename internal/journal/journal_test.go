package journal

import (
	"os"
	"strings"
	"testing"
	"time"

	"flacsync/internal/core"
)

func TestJournal_RecordAndList(t *testing.T) {
	j, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer func() {
		_ = j.Close()
	}()

	track := core.Track{Artist: "The Beatles", Title: "Hey Jude", SourceURL: "https://open.spotify.com/track/abc"}
	if err := j.RecordTrack(track, core.StatusSynced, "/music/The Beatles - Hey Jude.wav"); err != nil {
		t.Fatalf("RecordTrack() error: %v", err)
	}
	if err := j.RecordTrack(track, core.StatusDuplicate, ""); err != nil {
		t.Fatalf("RecordTrack() error: %v", err)
	}

	entries, err := j.RecentTracks(10)
	if err != nil {
		t.Fatalf("RecentTracks() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("RecentTracks() returned %d entries, expected 2", len(entries))
	}

	// Most recent first.
	if entries[0].Status != core.StatusDuplicate {
		t.Errorf("entries[0].Status = %q, expected %q", entries[0].Status, core.StatusDuplicate)
	}
	if entries[1].Artist != "The Beatles" || entries[1].Detail == "" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestJournal_RecordPass(t *testing.T) {
	j, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer func() {
		_ = j.Close()
	}()

	summary := core.PassSummary{
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
		Total:      10,
		Synced:     4,
		Duplicates: 5,
		Failures:   1,
	}
	if err := j.RecordPass(summary); err != nil {
		t.Fatalf("RecordPass() error: %v", err)
	}
}

func TestErrorLog_Format(t *testing.T) {
	dir := t.TempDir()
	log := NewErrorLog(dir, "flacsync")

	if err := log.Logf("resolve failed for %s - %s (%s): %v",
		"The Beatles", "Hey Jude", "https://open.spotify.com/track/abc", "no match"); err != nil {
		t.Fatalf("Logf() error: %v", err)
	}

	data, err := os.ReadFile(log.Path())
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", log.Path(), err)
	}
	line := strings.TrimSpace(string(data))

	if !strings.HasSuffix(log.Path(), "flacsync_errors.log") {
		t.Errorf("Path() = %q, expected flacsync_errors.log suffix", log.Path())
	}
	if !strings.HasPrefix(line, "[") {
		t.Fatalf("line %q should start with a bracketed timestamp", line)
	}

	end := strings.Index(line, "]")
	if end < 0 {
		t.Fatalf("line %q has no closing bracket", line)
	}
	if _, err := time.Parse(time.RFC3339, line[1:end]); err != nil {
		t.Errorf("timestamp %q is not RFC 3339: %v", line[1:end], err)
	}
	if !strings.Contains(line, "The Beatles - Hey Jude") {
		t.Errorf("line %q should carry artist and title", line)
	}
}

func TestErrorLog_Appends(t *testing.T) {
	log := NewErrorLog(t.TempDir(), "flacsync")

	if err := log.Logf("first"); err != nil {
		t.Fatal(err)
	}
	if err := log.Logf("second"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(log.Path())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("log has %d lines, expected 2", len(lines))
	}
}
