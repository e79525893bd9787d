package library

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("writeFile(%s): %v", name, err)
	}
	return path
}

func newTestDetector(t *testing.T, dir string) *Detector {
	t.Helper()
	return NewDetector(&DirLister{Dir: dir, Ext: "wav"}, 3, 5, zap.NewNop())
}

func TestDetectorExists_Match(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "The Beatles - Hey Jude.wav")

	detector := newTestDetector(t, dir)

	exists, err := detector.Exists("The Beatles", "Hey Jude (Remastered)")
	if err != nil {
		t.Fatalf("Exists() error: %v", err)
	}
	if !exists {
		t.Error("Exists() = false, expected true for decorated title with matching prefixes")
	}
}

func TestDetectorExists_NoMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "The Beatles - Hey Jude.wav")

	detector := newTestDetector(t, dir)

	exists, err := detector.Exists("Radiohead", "Creep")
	if err != nil {
		t.Fatalf("Exists() error: %v", err)
	}
	if exists {
		t.Error("Exists() = true for a track that is not present")
	}
}

func TestDetectorExists_EmptyDir(t *testing.T) {
	detector := newTestDetector(t, t.TempDir())

	exists, err := detector.Exists("The Beatles", "Hey Jude")
	if err != nil {
		t.Fatalf("Exists() error: %v", err)
	}
	if exists {
		t.Error("Exists() = true on an empty directory")
	}
}

func TestDetectorExists_ShortKeysIndeterminate(t *testing.T) {
	dir := t.TempDir()
	// A file that would match any substring query.
	writeFile(t, dir, "Go - Go.wav")

	detector := newTestDetector(t, dir)

	// Normalized artist "go" is shorter than the 3-byte prefix.
	exists, err := detector.Exists("Go", "Go Crazy")
	if err != nil {
		t.Fatalf("Exists() error: %v", err)
	}
	if exists {
		t.Error("Exists() = true for an indeterminate artist key, expected not-found")
	}

	// Normalized title "go" is shorter than the 5-byte prefix.
	exists, err = detector.Exists("Gorillaz", "Go")
	if err != nil {
		t.Fatalf("Exists() error: %v", err)
	}
	if exists {
		t.Error("Exists() = true for an indeterminate title key, expected not-found")
	}
}

func TestDetectorExists_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "The Beatles - Hey Jude.flac")

	detector := newTestDetector(t, dir)

	exists, err := detector.Exists("The Beatles", "Hey Jude")
	if err != nil {
		t.Fatalf("Exists() error: %v", err)
	}
	if exists {
		t.Error("Exists() = true for a file with the wrong extension")
	}
}

func TestDirLister_List(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a - b.wav")
	writeFile(t, dir, "c - d.WAV")
	writeFile(t, dir, "e - f.flac")

	lister := &DirLister{Dir: dir, Ext: "wav"}
	names, err := lister.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}

	if len(names) != 2 {
		t.Fatalf("List() returned %d names, expected 2: %v", len(names), names)
	}
	for _, name := range names {
		if name != "a - b" && name != "c - d" {
			t.Errorf("List() returned unexpected name %q", name)
		}
	}
}

func TestNewestByExt(t *testing.T) {
	dir := t.TempDir()
	older := writeFile(t, dir, "older.flac")
	newer := writeFile(t, dir, "newer.flac")
	writeFile(t, dir, "ignored.wav")

	now := time.Now()
	if err := os.Chtimes(older, now.Add(-time.Hour), now.Add(-time.Hour)); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if err := os.Chtimes(newer, now, now); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	got, err := NewestByExt(dir, "flac")
	if err != nil {
		t.Fatalf("NewestByExt() error: %v", err)
	}
	if got != newer {
		t.Errorf("NewestByExt() = %q, expected %q", got, newer)
	}
}

func TestNewestByExt_NoFile(t *testing.T) {
	_, err := NewestByExt(t.TempDir(), "flac")
	if !errors.Is(err, ErrNoFile) {
		t.Errorf("NewestByExt() error = %v, expected ErrNoFile", err)
	}
}

func TestListByExt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.flac")
	writeFile(t, dir, "two.flac")
	writeFile(t, dir, "done.wav")

	paths, err := ListByExt(dir, "flac")
	if err != nil {
		t.Fatalf("ListByExt() error: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("ListByExt() returned %d paths, expected 2: %v", len(paths), paths)
	}
}
