// Package library implements duplicate detection over the output directory.
// The directory itself is the record of what has been downloaded; there is no
// separate index.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"flacsync/pkg/fuzzy"
)

// ErrNoFile is returned when no file with the requested extension exists.
var ErrNoFile = errors.New("no matching file")

// Lister enumerates the names of tracks already present. Implementations
// return display names with the audio extension stripped. Backing the detector
// with an interface keeps the filesystem scan swappable for an indexed store.
type Lister interface {
	List() ([]string, error)
}

// DirLister lists base filenames with the configured extension in a directory.
type DirLister struct {
	Dir string
	Ext string // audio extension without the leading dot
}

// List returns the base names (extension stripped) of all files in Dir that
// carry the configured extension.
func (l *DirLister) List() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("read output dir: %w", err)
	}

	suffix := "." + strings.ToLower(l.Ext)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(strings.ToLower(name), suffix) {
			names = append(names, name[:len(name)-len(suffix)])
		}
	}
	return names, nil
}

// Detector decides whether a track is already present by matching short
// normalized prefixes of artist and title against existing filenames.
type Detector struct {
	lister       Lister
	artistPrefix int
	titlePrefix  int
	logger       *zap.Logger
}

// NewDetector creates a duplicate detector with the given match-prefix lengths.
func NewDetector(lister Lister, artistPrefix, titlePrefix int, logger *zap.Logger) *Detector {
	return &Detector{
		lister:       lister,
		artistPrefix: artistPrefix,
		titlePrefix:  titlePrefix,
		logger:       logger,
	}
}

// Exists reports whether some existing filename's normalized form contains
// both the artist prefix and the title prefix as substrings. When either
// prefix cannot be derived the match is indeterminate: Exists warns and
// reports not-found, never silently true. False positives for similarly
// prefixed tracks are an accepted tradeoff; upstream filenames carry
// decorations an exact match would miss.
func (d *Detector) Exists(artist, title string) (bool, error) {
	artistKey, ok := fuzzy.Key(artist, d.artistPrefix)
	if !ok {
		d.logger.Warn("artist too short for a reliable match key, treating as not downloaded",
			zap.String("artist", artist))
		return false, nil
	}

	titleKey, ok := fuzzy.Key(title, d.titlePrefix)
	if !ok {
		d.logger.Warn("title too short for a reliable match key, treating as not downloaded",
			zap.String("title", title))
		return false, nil
	}

	names, err := d.lister.List()
	if err != nil {
		return false, err
	}

	for _, name := range names {
		normalized := fuzzy.Normalize(name)
		if strings.Contains(normalized, artistKey) && strings.Contains(normalized, titleKey) {
			return true, nil
		}
	}
	return false, nil
}

// ListByExt returns the full paths of all files in dir carrying the given
// extension, in directory order.
func ListByExt(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	suffix := "." + strings.ToLower(ext)
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), suffix) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths, nil
}

// NewestByExt returns the most-recently-modified file in dir with the given
// extension, or ErrNoFile. Inherently racy when another process writes to the
// directory; there is exactly one writer per deployment.
func NewestByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read dir: %w", err)
	}

	suffix := "." + strings.ToLower(ext)
	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = entry.Name()
			newestMod = info.ModTime()
		}
	}

	if newest == "" {
		return "", ErrNoFile
	}
	return filepath.Join(dir, newest), nil
}
