package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/socialchef/transcriptor/internal/api"
	"github.com/socialchef/transcriptor/internal/config"
	"github.com/socialchef/transcriptor/internal/logger"
	"github.com/socialchef/transcriptor/internal/metrics"
	"github.com/socialchef/transcriptor/internal/sentry"
	"github.com/socialchef/transcriptor/internal/services/transcription"
	"github.com/socialchef/transcriptor/internal/telemetry"
)

// shutdownGrace bounds how long in-flight transcriptions may keep the
// process alive after a termination signal.
const shutdownGrace = 2 * time.Minute

func main() {
	defer sentry.Recover()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize telemetry
	shutdown, err := telemetry.InitTelemetry(ctx, cfg.ServiceName, cfg.ServiceVersion, cfg.Env, cfg.OtelExporterOTLPEndpoint, cfg.OTLPHeaders())
	if err != nil {
		slog.Warn("Failed to init telemetry", "error", err)
	} else {
		defer shutdown(ctx)
	}

	// Initialize Sentry
	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName, cfg.ServiceVersion); err != nil {
		slog.Warn("Failed to init Sentry", "error", err)
	} else if cfg.SentryDSN != "" {
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize pipeline metrics
	if err := metrics.Init(); err != nil {
		slog.Warn("Failed to init pipeline metrics", "error", err)
	}

	// Initialize logger with OTel support
	logger := logger.New(cfg.Env)
	slog.SetDefault(logger) // Set as default so slog.Info() uses our handler

	extractor := transcription.NewFFmpegExtractor(cfg.Media.FFmpegPath)
	if err := extractor.Check(); err != nil {
		slog.Warn("FFmpeg not found, uploads will fail until it is installed", "error", err)
	}

	// Loaded on the first upload, shared by every request afterwards
	model := transcription.NewModel(cfg)
	pipeline := transcription.NewPipeline(extractor, model, cfg.Media.TempDir)

	apiServer := api.NewServer(cfg, pipeline, model.Name())

	// No write timeout: a transcription takes as long as it takes
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	idle := make(chan struct{})
	go func() {
		defer close(idle)
		<-sigChan
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting server",
		"port", cfg.Port,
		"provider", cfg.Transcription.Provider,
		"model", model.Name(),
		"temp_dir", cfg.Media.TempDir)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	<-idle
}
