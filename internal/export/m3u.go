// Package export writes a playlist manifest of the mirrored files so the
// output directory can be played back in playlist order.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grafov/m3u8"

	"flacsync/internal/core"
)

// Writer produces <Dir>/<Name>.m3u8 after each sync pass. Entries reference
// files by base name; the manifest lives next to them.
type Writer struct {
	Dir  string
	Name string
}

// WriteManifest writes the manifest and returns its path. An empty entry list
// writes nothing.
func (w *Writer) WriteManifest(entries []core.ManifestEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	playlist, err := m3u8.NewMediaPlaylist(0, uint(len(entries)))
	if err != nil {
		return "", fmt.Errorf("create playlist: %w", err)
	}

	for _, entry := range entries {
		title := fmt.Sprintf("%s - %s", entry.Artist, entry.Title)
		if err := playlist.Append(filepath.Base(entry.Path), 0, title); err != nil {
			return "", fmt.Errorf("append playlist entry: %w", err)
		}
	}
	playlist.Close()

	name := w.Name
	if name == "" {
		name = "playlist"
	}
	path := filepath.Join(w.Dir, name+".m3u8")

	if err := os.WriteFile(path, playlist.Encode().Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
