// Package audio post-processes transcoded output files.
package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"go.uber.org/zap"
)

// Tagger rewrites ID3 frames on MP3 output files: artist (TPE1) and title
// (TIT2) are set from the track record and any comment (COMM) frames are
// dropped. Some transcoders copy source comments verbatim; this guarantees
// they never survive. Non-MP3 targets are left untouched.
type Tagger struct {
	logger *zap.Logger
}

func NewTagger(logger *zap.Logger) *Tagger {
	return &Tagger{logger: logger}
}

func (t *Tagger) Retag(path, artist, title string) error {
	if strings.ToLower(filepath.Ext(path)) != ".mp3" {
		return nil
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tag: %w", err)
	}
	defer func() {
		_ = tag.Close()
	}()

	if artist != "" {
		tag.SetArtist(artist)
	}
	if title != "" {
		tag.SetTitle(title)
	}
	tag.DeleteFrames(tag.CommonID("Comments"))

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 tag: %w", err)
	}

	t.logger.Debug("rewrote id3 tags", zap.String("file", path))
	return nil
}
