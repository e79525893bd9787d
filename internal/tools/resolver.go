package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Resolver translates a source-service track URL into a target-service URL by
// invoking the configured external tool. The source URL is appended as the
// final argument; the tool replies {"status": ..., "tidal_url": ...,
// "message": ...}.
type Resolver struct {
	command []string
	logger  *zap.Logger
}

func NewResolver(command string, logger *zap.Logger) *Resolver {
	return &Resolver{
		command: strings.Fields(command),
		logger:  logger,
	}
}

func (r *Resolver) Resolve(ctx context.Context, sourceURL string) (string, error) {
	out, err := runTool(ctx, r.command, sourceURL)
	if err != nil {
		return "", err
	}

	resp, err := decodeResponse(out)
	if err != nil {
		return "", err
	}

	if resp.Status != statusSuccess {
		return "", fmt.Errorf("resolver reported %q: %s", resp.Status, resp.Message)
	}
	if resp.TidalURL == "" {
		return "", errors.New("resolver returned no target URL")
	}

	r.logger.Debug("resolved track URL",
		zap.String("source", sourceURL),
		zap.String("target", resp.TidalURL))
	return resp.TidalURL, nil
}
