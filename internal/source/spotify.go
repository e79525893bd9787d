// Package source fetches playlist track records from the configured playlist
// provider.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"flacsync/internal/core"
)

// SpotifyClient reads public playlists through the Spotify Web API using the
// client-credentials flow. No user consent is involved; only the application
// id and secret are required.
type SpotifyClient struct {
	config *core.SpotifyConfig
	logger *zap.Logger
	client *spotify.Client
}

func NewSpotifyClient(config *core.SpotifyConfig, logger *zap.Logger) *SpotifyClient {
	return &SpotifyClient{
		config: config,
		logger: logger,
	}
}

// Authenticate obtains an application token. Called eagerly at startup so bad
// credentials fail the process before the first pass.
func (c *SpotifyClient) Authenticate(ctx context.Context) error {
	if c.config.ClientID == "" || c.config.ClientSecret == "" {
		return errors.New("spotify client credentials are required")
	}

	authConfig := &clientcredentials.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	token, err := authConfig.Token(ctx)
	if err != nil {
		return fmt.Errorf("spotify token request failed: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	c.client = spotify.New(httpClient)

	c.logger.Info("authenticated with Spotify")
	return nil
}

// Playlist returns the playlist's tracks in playlist order.
func (c *SpotifyClient) Playlist(ctx context.Context, id string) ([]core.Track, error) {
	if c.client == nil {
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	page, err := c.client.GetPlaylistItems(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("fetch playlist %s: %w", id, err)
	}

	var tracks []core.Track
	for {
		for _, item := range page.Items {
			full := item.Track.Track
			if full == nil {
				// Episodes and local files carry no track payload.
				continue
			}
			tracks = append(tracks, core.Track{
				Artist:    joinArtists(full.Artists),
				Title:     full.Name,
				SourceURL: full.ExternalURLs["spotify"],
			})
		}

		err = c.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetch playlist page: %w", err)
		}
	}

	c.logger.Debug("fetched playlist", zap.String("playlist", id), zap.Int("tracks", len(tracks)))
	return tracks, nil
}

func joinArtists(artists []spotify.SimpleArtist) string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		names = append(names, artist.Name)
	}
	return strings.Join(names, ", ")
}
