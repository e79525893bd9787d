package core

import (
	"time"
)

type Config struct {
	Spotify SpotifyConfig
	Source  SourceConfig
	Sync    SyncConfig
	Match   MatchConfig
	Tools   ToolsConfig
	Server  ServerConfig
	Log     LogConfig
	Journal JournalConfig
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	PlaylistID   string
}

// Source providers.
const (
	SourceSpotify = "spotify"
	SourceCommand = "command"
)

type SourceConfig struct {
	Provider     string
	Command      string
	PlaylistName string
}

type SyncConfig struct {
	OutputDir       string
	Interval        time.Duration
	TrackDelay      time.Duration
	ResolveAttempts int
	ResolveBackoff  time.Duration
	LosslessExt     string
	TargetExt       string
}

type MatchConfig struct {
	ArtistPrefixLen   int
	TitlePrefixLen    int
	CacheSize         int
	CacheFalsePosRate float64
}

type ToolsConfig struct {
	ResolverCommand   string
	DownloaderCommand string
	FFmpegPath        string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level string
}

type JournalConfig struct {
	Path string
}

func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Provider:     SourceSpotify,
			PlaylistName: "playlist",
		},
		Sync: SyncConfig{
			Interval:        4 * time.Hour,
			TrackDelay:      120 * time.Second,
			ResolveAttempts: 3,
			ResolveBackoff:  30 * time.Second,
			LosslessExt:     "flac",
			TargetExt:       "wav",
		},
		Match: MatchConfig{
			ArtistPrefixLen:   3,
			TitlePrefixLen:    5,
			CacheSize:         10000,
			CacheFalsePosRate: 0.001,
		},
		Tools: ToolsConfig{
			FFmpegPath: "ffmpeg",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Journal: JournalConfig{
			Path: "./flacsync_journal.db",
		},
	}
}
