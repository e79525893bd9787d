// Package http serves health probes and Prometheus metrics for the sync loop.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"flacsync/internal/core"
)

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
}

type Metrics struct {
	PassesTotal       prometheus.Counter
	PassDuration      prometheus.Histogram
	TracksSyncedTotal prometheus.Counter
	DuplicatesTotal   prometheus.Counter
	TrackErrorsTotal  *prometheus.CounterVec
	LibraryFiles      prometheus.Gauge
}

func NewServer(config *core.ServerConfig, logger *zap.Logger) *Server {
	metrics := &Metrics{
		PassesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flacsync_passes_total",
				Help: "Total number of completed sync passes",
			},
		),
		PassDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flacsync_pass_duration_seconds",
				Help:    "Time spent per sync pass",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		TracksSyncedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flacsync_tracks_synced_total",
				Help: "Total number of tracks downloaded and transcoded",
			},
		),
		DuplicatesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flacsync_duplicates_total",
				Help: "Total number of tracks skipped as already downloaded",
			},
		),
		TrackErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flacsync_track_errors_total",
				Help: "Total number of track-level pipeline failures",
			},
			[]string{"stage"},
		),
		LibraryFiles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "flacsync_library_files",
				Help: "Current number of files in the output directory",
			},
		),
	}

	prometheus.MustRegister(
		metrics.PassesTotal,
		metrics.PassDuration,
		metrics.TracksSyncedTotal,
		metrics.DuplicatesTotal,
		metrics.TrackErrorsTotal,
		metrics.LibraryFiles,
	)

	return &Server{
		config:  config,
		logger:  logger,
		server:  createHTTPServer(config, setupRoutes()),
		metrics: metrics,
	}
}

func setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"flacsync"}`))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready","service":"flacsync"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func createHTTPServer(config *core.ServerConfig, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("failed to shut down HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// The methods below satisfy core.Metrics.

func (s *Server) PassCompleted(duration time.Duration) {
	s.metrics.PassesTotal.Inc()
	s.metrics.PassDuration.Observe(duration.Seconds())
}

func (s *Server) TrackSynced() {
	s.metrics.TracksSyncedTotal.Inc()
}

func (s *Server) TrackDuplicate() {
	s.metrics.DuplicatesTotal.Inc()
}

func (s *Server) TrackError(stage string) {
	s.metrics.TrackErrorsTotal.WithLabelValues(stage).Inc()
}

func (s *Server) SetLibraryFiles(n int) {
	s.metrics.LibraryFiles.Set(float64(n))
}
