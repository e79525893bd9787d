package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"flacsync/internal/core"
)

// Command runs an external playlist tool that prints one JSON record per
// line on stdout: {"artist": ..., "name": ..., "url": ...}. The playlist
// identifier is appended as the final argument.
type Command struct {
	command []string
	logger  *zap.Logger
}

func NewCommand(command string, logger *zap.Logger) *Command {
	return &Command{
		command: strings.Fields(command),
		logger:  logger,
	}
}

type trackRecord struct {
	Artist string `json:"artist"`
	Name   string `json:"name"`
	URL    string `json:"url"`
}

func (s *Command) Playlist(ctx context.Context, id string) ([]core.Track, error) {
	if len(s.command) == 0 {
		return nil, errors.New("playlist command not configured")
	}

	args := append(append([]string{}, s.command[1:]...), id)
	cmd := exec.CommandContext(ctx, s.command[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("playlist command %s: %w (%s)",
			s.command[0], err, strings.TrimSpace(stderr.String()))
	}

	return s.parseLines(stdout.Bytes()), nil
}

// parseLines decodes one record per line. Unparsable lines are skipped with a
// warning; records with missing fields pass through so the pipeline can log
// the skip itself.
func (s *Command) parseLines(out []byte) []core.Track {
	var tracks []core.Track

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record trackRecord
		// First JSON value wins; trailing output on the line is ignored.
		if err := json.NewDecoder(strings.NewReader(line)).Decode(&record); err != nil {
			s.logger.Warn("skipping unparsable playlist line", zap.String("line", line), zap.Error(err))
			continue
		}

		tracks = append(tracks, core.Track{
			Artist:    record.Artist,
			Title:     record.Name,
			SourceURL: record.URL,
		})
	}
	return tracks
}
