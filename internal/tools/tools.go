// Package tools wraps the external collaborators the pipeline delegates to:
// the URL resolver, the download client and the transcoder. Each is a
// subprocess; the resolver and downloader report a JSON object on stdout.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const statusSuccess = "success"

// response is the common shape of resolver and downloader replies.
type response struct {
	Status   string `json:"status"`
	TidalURL string `json:"tidal_url"`
	FilePath string `json:"file_path"`
	Path     string `json:"path"`
	Message  string `json:"message"`
}

// decodeResponse reads the first JSON value from out; trailing output (progress
// lines, prompts) is tolerated.
func decodeResponse(out []byte) (*response, error) {
	var r response
	if err := json.NewDecoder(bytes.NewReader(out)).Decode(&r); err != nil {
		return nil, fmt.Errorf("unparsable tool output %q: %w", truncate(out, 200), err)
	}
	return &r, nil
}

// runTool executes command with extra arguments appended, returning stdout.
// Stderr is folded into the error on failure.
func runTool(ctx context.Context, command []string, args ...string) ([]byte, error) {
	if len(command) == 0 {
		return nil, errors.New("tool command not configured")
	}

	cmd := exec.CommandContext(ctx, command[0], append(append([]string{}, command[1:]...), args...)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w (%s)", command[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
