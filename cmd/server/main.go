package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skypro1111/energy-vad-service/internal/config"
	"github.com/skypro1111/energy-vad-service/internal/metrics"
	"github.com/skypro1111/energy-vad-service/internal/server"
	"github.com/skypro1111/energy-vad-service/internal/stream"
	"github.com/skypro1111/energy-vad-service/internal/vad"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "energy-vad-service"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary
	logger.Info("Configuration loaded",
		slog.Int("http_port", cfg.HTTP.Port),
		slog.String("bind_address", cfg.HTTP.Address),
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("max_sessions", cfg.Audio.MaxSessions),
		slog.Float64("top_db", cfg.VAD.TopDB),
		slog.Int("frame_length", cfg.VAD.FrameLength),
		slog.Int("hop_length", cfg.VAD.HopLength),
		slog.Float64("min_speech_duration", cfg.VAD.MinSpeechDuration),
		slog.Float64("min_silence_duration", cfg.VAD.MinSilenceDuration),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize stream manager for WebSocket sessions. Minimum durations
	// are converted to frame counts against the configured stream rate.
	streamMgr, err := stream.NewManager(logger, stream.ManagerConfig{
		VAD: vad.Config{
			TopDB:            cfg.VAD.TopDB,
			FrameLength:      cfg.VAD.FrameLength,
			HopLength:        cfg.VAD.HopLength,
			MinSpeechFrames:  cfg.VAD.MinSpeechFrames(cfg.Audio.SampleRate),
			MinSilenceFrames: cfg.VAD.MinSilenceFrames(cfg.Audio.SampleRate),
			ReferenceLevel:   cfg.VAD.ReferenceLevel,
		},
		SampleRate:     cfg.Audio.SampleRate,
		SessionTimeout: cfg.Audio.GetSessionTimeoutDuration(),
		MaxSessions:    cfg.Audio.MaxSessions,
	})
	if err != nil {
		logger.Error("Failed to create stream manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Stream manager initialized",
		slog.Duration("session_timeout", cfg.Audio.GetSessionTimeoutDuration()),
		slog.Int("max_sessions", cfg.Audio.MaxSessions),
	)

	// Initialize and start HTTP API server
	httpServer := server.NewHTTPServer(logger, cfg, streamMgr, appMetrics)
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
	)

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	// Stop stream manager (flush sessions and stop background routines)
	streamMgr.Stop()

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
