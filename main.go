// main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/akhenakh/glcc/metrics"
)

const appName = "glcc"

// Config holds all configuration for the application, loaded from environment variables.
type Config struct {
	LogLevel   string `env:"LOG_LEVEL" envDefault:"INFO"`
	Source     string `env:"GLCC_SOURCE"`
	LegendFile string `env:"GLCC_LEGEND"`
	// Projection is auto, geographic or goode.
	Projection        string `env:"GLCC_PROJECTION" envDefault:"auto"`
	Coords            bool   `env:"GLCC_COORDS" envDefault:"true"`
	Bounds            bool   `env:"GLCC_BOUNDS" envDefault:"true"`
	Workers           int    `env:"GLCC_WORKERS" envDefault:"0"`
	CacheMaxSize      int64  `env:"CACHE_MAX_SIZE" envDefault:"1024"`
	CacheItemsToPrune uint32 `env:"CACHE_ITEMS_TO_PRUNE" envDefault:"100"`
	ChunkCacheSize    int64  `env:"CHUNK_CACHE_SIZE" envDefault:"16"`
	MetricsTextfile   string `env:"METRICS_TEXTFILE"`
	PlotWidth         int    `env:"PLOT_WIDTH" envDefault:"2000"`
	PlotHeight        int    `env:"PLOT_HEIGHT" envDefault:"1000"`
	PlotStride        int    `env:"PLOT_STRIDE" envDefault:"0"`
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		fmt.Printf("failed to parse config: %+v\n", err)
		os.Exit(1)
	}

	logger := createLogger(cfg, appName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	err = newRootCmd(cfg, logger, m).ExecuteContext(ctx)
	if werr := metrics.WriteTextfile(cfg.MetricsTextfile, prometheus.DefaultGatherer); werr != nil {
		logger.Error("failed to write metrics textfile", "path", cfg.MetricsTextfile, "error", werr)
	}
	if err != nil {
		if ctx.Err() != nil {
			slog.Warn("received termination signal, stopped")
		}
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func createLogger(cfg Config, appName string) *slog.Logger {
	var programLevel slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		programLevel = slog.LevelDebug
	case "INFO":
		programLevel = slog.LevelInfo
	case "WARN":
		programLevel = slog.LevelWarn
	case "ERROR":
		programLevel = slog.LevelError
	default:
		programLevel = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:     programLevel,
		AddSource: programLevel <= slog.LevelDebug,
	}).WithAttrs([]slog.Attr{slog.String("app", appName)})
	return slog.New(handler)
}
