package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"flacsync/internal/library"
	"flacsync/pkg/fuzzy"
)

// SyncerDeps bundles the collaborators of the sync loop. Source, Resolver,
// Downloader, Transcoder and Detector are required; the rest default to
// no-ops when nil.
type SyncerDeps struct {
	Source     PlaylistSource
	Resolver   Resolver
	Downloader Downloader
	Transcoder Transcoder
	Detector   DuplicateDetector
	Cache      KeyCache
	Journal    Journal
	Tagger     Tagger
	Manifest   ManifestWriter
	ErrorLog   ErrorLog
	Metrics    Metrics
}

// Syncer drives the recurring mirror schedule: one pass over the playlist,
// then a fixed sleep, forever. Exactly one track is in flight at a time; the
// inter-track and inter-pass sleeps are the only backpressure against the
// external services.
type Syncer struct {
	config     *Config
	source     PlaylistSource
	resolver   Resolver
	downloader Downloader
	transcoder Transcoder
	detector   DuplicateDetector
	cache      KeyCache
	journal    Journal
	tagger     Tagger
	manifest   ManifestWriter
	errlog     ErrorLog
	metrics    Metrics
	logger     *zap.Logger
}

func NewSyncer(config *Config, deps SyncerDeps, logger *zap.Logger) *Syncer {
	if deps.Cache == nil {
		deps.Cache = nopCache{}
	}
	if deps.Journal == nil {
		deps.Journal = nopJournal{}
	}
	if deps.Tagger == nil {
		deps.Tagger = nopTagger{}
	}
	if deps.Manifest == nil {
		deps.Manifest = nopManifest{}
	}
	if deps.ErrorLog == nil {
		deps.ErrorLog = nopErrorLog{}
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}

	return &Syncer{
		config:     config,
		source:     deps.Source,
		resolver:   deps.Resolver,
		downloader: deps.Downloader,
		transcoder: deps.Transcoder,
		detector:   deps.Detector,
		cache:      deps.Cache,
		journal:    deps.Journal,
		tagger:     deps.Tagger,
		manifest:   deps.Manifest,
		errlog:     deps.ErrorLog,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Run executes sync passes until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	s.logger.Info("starting sync loop",
		zap.String("playlist", s.config.Spotify.PlaylistID),
		zap.String("output_dir", s.config.Sync.OutputDir),
		zap.Duration("interval", s.config.Sync.Interval))

	for {
		s.runPass(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("sync loop stopped")
			return nil
		case <-time.After(s.config.Sync.Interval):
		}
	}
}

// runPass processes every track of the playlist once. Every failure below the
// playlist fetch is track-level: logged with full context and never fatal to
// the pass.
func (s *Syncer) runPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	started := time.Now()
	s.logger.Info("starting sync pass")

	tracks, err := s.source.Playlist(ctx, s.config.Spotify.PlaylistID)
	if err != nil {
		s.logger.Error("failed to fetch playlist", zap.Error(err))
		s.logError("playlist fetch failed for %s: %v", s.config.Spotify.PlaylistID, err)
		s.metrics.TrackError(StageFetch)
		return
	}

	summary := PassSummary{StartedAt: started, Total: len(tracks)}
	var entries []ManifestEntry

	for i, track := range tracks {
		if ctx.Err() != nil {
			return
		}

		status, outPath := s.processTrack(ctx, track)
		switch status {
		case StatusSynced:
			summary.Synced++
		case StatusDuplicate:
			summary.Duplicates++
		case StatusFailed:
			summary.Failures++
		}

		if outPath != "" && (status == StatusSynced || status == StatusDuplicate) {
			if _, err := os.Stat(outPath); err == nil {
				entries = append(entries, ManifestEntry{Path: outPath, Artist: track.Artist, Title: track.Title})
			}
		}

		if i < len(tracks)-1 && !sleepCtx(ctx, s.config.Sync.TrackDelay) {
			return
		}
	}

	s.recoverLeftovers(ctx)
	s.writeManifest(entries)

	summary.FinishedAt = time.Now()
	if err := s.journal.RecordPass(summary); err != nil {
		s.logger.Warn("failed to record pass summary", zap.Error(err))
	}
	s.metrics.PassCompleted(summary.FinishedAt.Sub(started))

	s.logger.Info("sync pass complete",
		zap.Int("total", summary.Total),
		zap.Int("synced", summary.Synced),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("failures", summary.Failures),
		zap.Int("cached_keys", s.cache.Size()),
		zap.Duration("duration", summary.FinishedAt.Sub(started)))
}

// processTrack runs the per-track pipeline and returns the journal status and
// the final output path (empty unless the file is expected on disk).
func (s *Syncer) processTrack(ctx context.Context, track Track) (status, outPath string) {
	log := s.logger.With(zap.String("artist", track.Artist), zap.String("title", track.Title))

	if !track.Valid() {
		log.Warn("skipping malformed track record", zap.String("url", track.SourceURL))
		s.recordTrack(track, StatusSkipped, "missing artist, title or url")
		return StatusSkipped, ""
	}

	outPath = filepath.Join(s.config.Sync.OutputDir,
		OutputFileName(track.Artist, track.Title, s.config.Sync.TargetExt))
	key := matchCacheKey(track)

	if s.cache.Has(key) {
		log.Info("already downloaded, skipping", zap.String("via", "cache"))
		s.recordTrack(track, StatusDuplicate, "")
		s.metrics.TrackDuplicate()
		return StatusDuplicate, outPath
	}

	exists, err := s.detector.Exists(track.Artist, track.Title)
	if err != nil {
		s.trackFailure(track, StageLibrary, err, log)
		return StatusFailed, ""
	}
	if exists {
		log.Info("already downloaded, skipping")
		s.cache.Add(key)
		s.recordTrack(track, StatusDuplicate, "")
		s.metrics.TrackDuplicate()
		return StatusDuplicate, outPath
	}

	targetURL, err := s.resolveWithRetry(ctx, track.SourceURL, log)
	if err != nil {
		s.trackFailure(track, StageResolve, err, log)
		return StatusFailed, ""
	}

	reported, err := s.downloader.Download(ctx, targetURL, s.config.Sync.OutputDir)
	if err != nil {
		s.trackFailure(track, StageDownload, err, log)
		return StatusFailed, ""
	}

	lossless, err := s.locateDownload(reported, log)
	if err != nil {
		s.trackFailure(track, StageLocate, err, log)
		return StatusFailed, ""
	}

	if err := s.transcoder.Transcode(ctx, lossless, outPath, Tags{Artist: track.Artist, Title: track.Title}); err != nil {
		log.Error("transcode failed", zap.String("src", lossless), zap.Error(err))
	}

	// The transcoded file on disk, not the transcoder's exit status, decides
	// success. On failure the intermediate file stays for the recovery sweep.
	if _, err := os.Stat(outPath); err != nil {
		s.trackFailure(track, StageTranscode,
			fmt.Errorf("transcoded file missing: %s", outPath), log)
		return StatusFailed, ""
	}

	if err := s.tagger.Retag(outPath, track.Artist, track.Title); err != nil {
		log.Warn("tag rewrite failed", zap.Error(err))
	}

	if err := os.Remove(lossless); err != nil {
		log.Warn("failed to remove intermediate file", zap.String("path", lossless), zap.Error(err))
	}

	s.cache.Add(key)
	s.recordTrack(track, StatusSynced, outPath)
	s.metrics.TrackSynced()
	log.Info("track synced", zap.String("file", outPath))
	return StatusSynced, outPath
}

// resolveWithRetry asks the resolver up to the configured attempt count, with
// a fixed backoff between attempts.
func (s *Syncer) resolveWithRetry(ctx context.Context, sourceURL string, log *zap.Logger) (string, error) {
	attempts := s.config.Sync.ResolveAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		targetURL, err := s.resolver.Resolve(ctx, sourceURL)
		if err == nil {
			return targetURL, nil
		}

		lastErr = err
		log.Warn("resolution attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if attempt < attempts && !sleepCtx(ctx, s.config.Sync.ResolveBackoff) {
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// locateDownload prefers the path the downloader reported; when that is empty
// or the file is gone it falls back to the newest lossless file in the output
// directory. It never fabricates a path.
func (s *Syncer) locateDownload(reported string, log *zap.Logger) (string, error) {
	if reported != "" {
		if _, err := os.Stat(reported); err == nil {
			return reported, nil
		}
		log.Warn("downloader reported a missing file, falling back to newest",
			zap.String("path", reported))
	}

	path, err := library.NewestByExt(s.config.Sync.OutputDir, s.config.Sync.LosslessExt)
	if err != nil {
		return "", fmt.Errorf("locate downloaded file: %w", err)
	}
	return path, nil
}

// recoverLeftovers converts lossless files a prior crashed run left behind:
// transcode without per-file tags, then delete the source. Best effort.
func (s *Syncer) recoverLeftovers(ctx context.Context) {
	paths, err := library.ListByExt(s.config.Sync.OutputDir, s.config.Sync.LosslessExt)
	if err != nil {
		s.logger.Warn("leftover scan failed", zap.Error(err))
		return
	}

	for _, src := range paths {
		if ctx.Err() != nil {
			return
		}

		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		dst := filepath.Join(s.config.Sync.OutputDir, base+"."+s.config.Sync.TargetExt)

		if err := s.transcoder.Transcode(ctx, src, dst, Tags{}); err != nil {
			s.logger.Error("leftover transcode failed", zap.String("src", src), zap.Error(err))
		}
		if _, err := os.Stat(dst); err != nil {
			s.logError("leftover conversion failed for %s", src)
			s.metrics.TrackError(StageCleanup)
			continue
		}

		if err := os.Remove(src); err != nil {
			s.logger.Warn("failed to remove leftover file", zap.String("path", src), zap.Error(err))
			continue
		}
		s.logger.Info("recovered leftover lossless file", zap.String("file", dst))
	}
}

func (s *Syncer) writeManifest(entries []ManifestEntry) {
	if len(entries) == 0 {
		return
	}
	path, err := s.manifest.WriteManifest(entries)
	if err != nil {
		s.logger.Warn("failed to write playlist manifest", zap.Error(err))
		return
	}
	if path != "" {
		s.logger.Info("wrote playlist manifest", zap.String("file", path), zap.Int("entries", len(entries)))
	}
}

// trackFailure records one track-level pipeline error with enough context to
// retry manually, then lets the pass continue.
func (s *Syncer) trackFailure(track Track, stage string, err error, log *zap.Logger) {
	log.Error("track failed", zap.String("stage", stage), zap.Error(err))
	s.logError("%s failed for %s - %s (%s): %v", stage, track.Artist, track.Title, track.SourceURL, err)
	s.recordTrack(track, StatusFailed, fmt.Sprintf("%s: %v", stage, err))
	s.metrics.TrackError(stage)
}

func (s *Syncer) recordTrack(track Track, status, detail string) {
	if err := s.journal.RecordTrack(track, status, detail); err != nil {
		s.logger.Warn("failed to record track in journal", zap.Error(err))
	}
}

func (s *Syncer) logError(format string, args ...any) {
	if err := s.errlog.Logf(format, args...); err != nil {
		s.logger.Warn("failed to append to error log", zap.Error(err))
	}
}

// matchCacheKey derives the cache identity of a track from its normalized
// artist and title.
func matchCacheKey(track Track) string {
	return fuzzy.Normalize(track.Artist) + "|" + fuzzy.Normalize(track.Title)
}

// sleepCtx sleeps for d unless ctx is cancelled first. Reports false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

type nopCache struct{}

func (nopCache) Has(string) bool { return false }
func (nopCache) Add(string)      {}
func (nopCache) Size() int       { return 0 }

type nopJournal struct{}

func (nopJournal) RecordTrack(Track, string, string) error { return nil }
func (nopJournal) RecordPass(PassSummary) error            { return nil }

type nopTagger struct{}

func (nopTagger) Retag(string, string, string) error { return nil }

type nopManifest struct{}

func (nopManifest) WriteManifest([]ManifestEntry) (string, error) { return "", nil }

type nopErrorLog struct{}

func (nopErrorLog) Logf(string, ...any) error { return nil }

type nopMetrics struct{}

func (nopMetrics) PassCompleted(time.Duration) {}
func (nopMetrics) TrackSynced()                {}
func (nopMetrics) TrackDuplicate()             {}
func (nopMetrics) TrackError(string)           {}
