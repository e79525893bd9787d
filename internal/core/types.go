package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Track is one playlist entry. Identity is semantic (artist plus title), not
// the URL. Tracks are produced per sync pass and discarded; the output
// directory is the only persistent record of what has been downloaded.
type Track struct {
	Artist    string
	Title     string
	SourceURL string
}

// Valid reports whether the record carries all fields the pipeline needs.
func (t Track) Valid() bool {
	return t.Artist != "" && t.Title != "" && t.SourceURL != ""
}

// Tags is the metadata embedded into the transcoded output file.
type Tags struct {
	Artist string
	Title  string
}

// Per-track journal statuses.
const (
	StatusSynced    = "synced"
	StatusDuplicate = "duplicate"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Pipeline stages reported on track-level failures.
const (
	StageFetch     = "fetch"
	StageLibrary   = "library"
	StageResolve   = "resolve"
	StageDownload  = "download"
	StageLocate    = "locate"
	StageTranscode = "transcode"
	StageCleanup   = "cleanup"
)

// PassSummary describes one completed sync pass.
type PassSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Synced     int
	Duplicates int
	Failures   int
}

// ManifestEntry is one row of the exported playlist manifest.
type ManifestEntry struct {
	Path   string
	Artist string
	Title  string
}

// PlaylistSource returns the ordered track records of a playlist.
type PlaylistSource interface {
	Playlist(ctx context.Context, id string) ([]Track, error)
}

// Resolver translates a source-service track URL into a target-service URL.
type Resolver interface {
	Resolve(ctx context.Context, sourceURL string) (string, error)
}

// Downloader fetches a lossless file for a target-service URL into dir. The
// returned path may be empty when the tool does not report one; callers fall
// back to scanning the directory.
type Downloader interface {
	Download(ctx context.Context, targetURL, dir string) (string, error)
}

// Transcoder converts src into dst, embedding tags and clearing any
// pre-existing comment tag. Zero-value tags produce an untagged conversion.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string, tags Tags) error
}

// DuplicateDetector decides whether a track is already present locally.
type DuplicateDetector interface {
	Exists(artist, title string) (bool, error)
}

// KeyCache remembers match keys confirmed as downloaded during this run.
type KeyCache interface {
	Has(key string) bool
	Add(key string)
	Size() int
}

// Tagger post-processes a transcoded file's embedded metadata.
type Tagger interface {
	Retag(path, artist, title string) error
}

// Journal records per-track outcomes and pass summaries.
type Journal interface {
	RecordTrack(track Track, status, detail string) error
	RecordPass(summary PassSummary) error
}

// ManifestWriter persists a playlist manifest of the mirrored files.
type ManifestWriter interface {
	WriteManifest(entries []ManifestEntry) (string, error)
}

// ErrorLog appends timestamped track-failure lines for manual retry.
type ErrorLog interface {
	Logf(format string, args ...any) error
}

// Metrics receives sync loop counters.
type Metrics interface {
	PassCompleted(duration time.Duration)
	TrackSynced()
	TrackDuplicate()
	TrackError(stage string)
}

// Characters that must not appear in output filenames.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"|", "-",
	"*", "",
	"?", "",
	"<", "",
	">", "",
	`"`, "'",
)

// OutputFileName builds the final "<artist> - <title>.<ext>" filename with
// path-hostile characters replaced.
func OutputFileName(artist, title, ext string) string {
	return fmt.Sprintf("%s - %s.%s",
		fileNameReplacer.Replace(artist),
		fileNameReplacer.Replace(title),
		ext)
}
