package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"flacsync/internal/core"
)

// Transcoder converts audio files by invoking ffmpeg. The output format is
// inferred from the destination extension. Non-zero tags are embedded and the
// comment tag is cleared; zero-value tags produce a plain conversion (used by
// the leftover recovery sweep).
type Transcoder struct {
	ffmpegPath string
	logger     *zap.Logger
}

func NewTranscoder(ffmpegPath string, logger *zap.Logger) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Transcoder{
		ffmpegPath: ffmpegPath,
		logger:     logger,
	}
}

func (t *Transcoder) Transcode(ctx context.Context, src, dst string, tags core.Tags) error {
	args := t.args(src, dst, tags)

	t.logger.Debug("transcoding", zap.String("src", src), zap.String("dst", dst))

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w (%s)", t.ffmpegPath, err, lastLine(out))
	}
	return nil
}

func (t *Transcoder) args(src, dst string, tags core.Tags) []string {
	args := []string{"-y", "-loglevel", "error", "-i", src}
	if tags != (core.Tags{}) {
		args = append(args,
			"-metadata", "artist="+tags.Artist,
			"-metadata", "title="+tags.Title,
			"-metadata", "comment=",
		)
	}
	return append(args, dst)
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
