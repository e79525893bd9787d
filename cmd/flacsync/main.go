// Package main provides the flacsync CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"flacsync/internal/audio"
	"flacsync/internal/core"
	"flacsync/internal/export"
	httpserver "flacsync/internal/http"
	"flacsync/internal/journal"
	"flacsync/internal/library"
	"flacsync/internal/source"
	"flacsync/internal/store"
	"flacsync/internal/tools"
)

const appName = "flacsync"

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "flacsync - Spotify playlist to lossless library mirror",
	Long: `flacsync is a long-running service that periodically reads a public Spotify
playlist and mirrors every track into a local directory of lossless audio
files, resolving each track to Tidal and transcoding the download with ffmpeg.`,
	RunE: runFlacsync,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the most recent per-track sync outcomes",
	RunE:  runHistory,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("playlist-id", "", "Spotify playlist ID to mirror")
	rootCmd.PersistentFlags().String("playlist-name", "playlist", "name used for the exported manifest")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("output-dir", "", "directory the mirrored files live in")
	rootCmd.PersistentFlags().String("source", core.SourceSpotify, "playlist source (spotify, command)")
	rootCmd.PersistentFlags().String("source-command", "", "external command printing playlist tracks as JSON lines")
	rootCmd.PersistentFlags().String("resolver-command", "", "external command resolving a Spotify URL to a Tidal URL")
	rootCmd.PersistentFlags().String("downloader-command", "", "external command downloading a Tidal URL")
	rootCmd.PersistentFlags().String("ffmpeg-path", "ffmpeg", "path to the ffmpeg binary")
	rootCmd.PersistentFlags().String("lossless-ext", "flac", "extension the downloader produces")
	rootCmd.PersistentFlags().String("target-ext", "wav", "extension of the mirrored files")
	rootCmd.PersistentFlags().Duration("sync-interval", 4*time.Hour, "delay between sync passes")
	rootCmd.PersistentFlags().Duration("track-delay", 120*time.Second, "delay between consecutive tracks")
	rootCmd.PersistentFlags().Int("resolve-attempts", 3, "resolution attempts per track")
	rootCmd.PersistentFlags().Duration("resolve-backoff", 30*time.Second, "delay between resolution attempts")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().String("journal-path", "./flacsync_journal.db", "path of the sync journal database")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(historyCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("FLACSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
	cfg.Spotify.PlaylistID = viper.GetString("playlist-id")

	cfg.Source.Provider = viper.GetString("source")
	cfg.Source.Command = viper.GetString("source-command")
	cfg.Source.PlaylistName = viper.GetString("playlist-name")
	if cfg.Source.PlaylistName == "" {
		cfg.Source.PlaylistName = "playlist"
	}

	cfg.Sync.OutputDir = viper.GetString("output-dir")
	cfg.Sync.Interval = viper.GetDuration("sync-interval")
	cfg.Sync.TrackDelay = viper.GetDuration("track-delay")
	cfg.Sync.ResolveAttempts = viper.GetInt("resolve-attempts")
	cfg.Sync.ResolveBackoff = viper.GetDuration("resolve-backoff")
	cfg.Sync.LosslessExt = viper.GetString("lossless-ext")
	cfg.Sync.TargetExt = viper.GetString("target-ext")

	cfg.Tools.ResolverCommand = viper.GetString("resolver-command")
	cfg.Tools.DownloaderCommand = viper.GetString("downloader-command")
	cfg.Tools.FFmpegPath = viper.GetString("ffmpeg-path")

	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	cfg.Server.Port = viper.GetInt("server-port")

	cfg.Log.Level = viper.GetString("log-level")

	cfg.Journal.Path = viper.GetString("journal-path")
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "./flacsync_journal.db"
	}

	return cfg
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runFlacsync(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting flacsync",
		zap.String("version", "1.0.0"),
		zap.String("source", config.Source.Provider),
		zap.String("playlist", config.Spotify.PlaylistID),
		zap.String("output_dir", config.Sync.OutputDir))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	playlistSource, err := buildSource(ctx)
	if err != nil {
		return err
	}

	jnl, err := journal.Open(config.Journal.Path)
	if err != nil {
		return fmt.Errorf("failed to open sync journal: %w", err)
	}
	defer func() {
		_ = jnl.Close()
	}()

	lister := &library.DirLister{Dir: config.Sync.OutputDir, Ext: config.Sync.TargetExt}
	detector := library.NewDetector(
		lister,
		config.Match.ArtistPrefixLen,
		config.Match.TitlePrefixLen,
		logger.Named("library"),
	)

	httpServer := httpserver.NewServer(&config.Server, logger.Named("http"))

	syncer := core.NewSyncer(config, core.SyncerDeps{
		Source:     playlistSource,
		Resolver:   tools.NewResolver(config.Tools.ResolverCommand, logger.Named("resolver")),
		Downloader: tools.NewDownloader(config.Tools.DownloaderCommand, logger.Named("downloader")),
		Transcoder: tools.NewTranscoder(config.Tools.FFmpegPath, logger.Named("ffmpeg")),
		Detector:   detector,
		Cache:      store.NewKeyCache(config.Match.CacheSize, config.Match.CacheFalsePosRate),
		Journal:    jnl,
		Tagger:     audio.NewTagger(logger.Named("tagger")),
		Manifest:   &export.Writer{Dir: config.Sync.OutputDir, Name: config.Source.PlaylistName},
		ErrorLog:   journal.NewErrorLog(config.Sync.OutputDir, appName),
		Metrics:    httpServer,
	}, logger.Named("syncer"))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	g.Go(func() error {
		return syncer.Run(gCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				if files, err := lister.List(); err == nil {
					httpServer.SetLibraryFiles(len(files))
				}
			}
		}
	})

	logger.Info("flacsync started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("flacsync stopped with error", zap.Error(err))
		return err
	}

	logger.Info("flacsync stopped gracefully")
	return nil
}

func buildSource(ctx context.Context) (core.PlaylistSource, error) {
	switch config.Source.Provider {
	case core.SourceCommand:
		return source.NewCommand(config.Source.Command, logger.Named("source")), nil
	case core.SourceSpotify, "":
		client := source.NewSpotifyClient(&config.Spotify, logger.Named("spotify"))
		if err := client.Authenticate(ctx); err != nil {
			return nil, fmt.Errorf("failed to authenticate with Spotify: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown playlist source: %s", config.Source.Provider)
	}
}

func runHistory(_ *cobra.Command, _ []string) error {
	jnl, err := journal.Open(config.Journal.Path)
	if err != nil {
		return fmt.Errorf("failed to open sync journal: %w", err)
	}
	defer func() {
		_ = jnl.Close()
	}()

	entries, err := jnl.RecentTracks(50)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No sync history recorded yet.")
		return nil
	}

	for _, entry := range entries {
		line := fmt.Sprintf("%s  %-10s  %s - %s",
			entry.RecordedAt.Local().Format("2006-01-02 15:04"),
			entry.Status, entry.Artist, entry.Title)
		if entry.Detail != "" {
			line += "  (" + entry.Detail + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func validateConfig() error {
	if config.Spotify.PlaylistID == "" {
		return fmt.Errorf("playlist ID is required")
	}

	if config.Sync.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	info, err := os.Stat(config.Sync.OutputDir)
	if err != nil {
		return fmt.Errorf("output directory %s does not exist: %w", config.Sync.OutputDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output path %s is not a directory", config.Sync.OutputDir)
	}

	if config.Source.Provider == core.SourceSpotify || config.Source.Provider == "" {
		if config.Spotify.ClientID == "" {
			return fmt.Errorf("spotify client ID is required")
		}
		if config.Spotify.ClientSecret == "" {
			return fmt.Errorf("spotify client secret is required")
		}
	}
	if config.Source.Provider == core.SourceCommand && config.Source.Command == "" {
		return fmt.Errorf("source command is required")
	}

	if config.Tools.ResolverCommand == "" {
		return fmt.Errorf("resolver command is required")
	}
	if config.Tools.DownloaderCommand == "" {
		return fmt.Errorf("downloader command is required")
	}

	if config.Sync.ResolveAttempts < 1 {
		return fmt.Errorf("resolve attempts must be at least 1")
	}

	return nil
}
