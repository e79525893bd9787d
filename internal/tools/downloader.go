package tools

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Downloader invokes the configured external download client with the target
// URL and the destination directory appended as arguments. The tool replies
// {"status": ..., "file_path"|"path": ..., "message": ...}; the path may be
// absent, in which case the caller falls back to scanning the directory.
type Downloader struct {
	command []string
	logger  *zap.Logger
}

func NewDownloader(command string, logger *zap.Logger) *Downloader {
	return &Downloader{
		command: strings.Fields(command),
		logger:  logger,
	}
}

func (d *Downloader) Download(ctx context.Context, targetURL, dir string) (string, error) {
	out, err := runTool(ctx, d.command, targetURL, dir)
	if err != nil {
		return "", err
	}

	resp, err := decodeResponse(out)
	if err != nil {
		return "", err
	}

	if resp.Status != statusSuccess {
		return "", fmt.Errorf("downloader reported %q: %s", resp.Status, resp.Message)
	}

	path := resp.FilePath
	if path == "" {
		path = resp.Path
	}

	d.logger.Debug("download finished",
		zap.String("target", targetURL),
		zap.String("reported_path", path))
	return path, nil
}
