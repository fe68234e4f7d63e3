package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}))
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "auto", cfg.Projection)
	assert.True(t, cfg.Coords)
	assert.True(t, cfg.Bounds)
	assert.Equal(t, 2000, cfg.PlotWidth)
	assert.Equal(t, 1000, cfg.PlotHeight)
	assert.Equal(t, int64(16), cfg.ChunkCacheSize)

	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{
		"GLCC_SOURCE":     "s3://glcc/gbogeg20.tif",
		"GLCC_PROJECTION": "goode",
		"GLCC_BOUNDS":     "false",
	}}))
	assert.Equal(t, "s3://glcc/gbogeg20.tif", cfg.Source)
	assert.Equal(t, "goode", cfg.Projection)
	assert.False(t, cfg.Bounds)
}

func TestCreateLogger(t *testing.T) {
	ctx := context.Background()
	for level, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"ERROR": slog.LevelError,
		"bogus": slog.LevelInfo,
	} {
		l := createLogger(Config{LogLevel: level}, appName)
		assert.True(t, l.Enabled(ctx, want), level)
		assert.False(t, l.Enabled(ctx, want-1), level)
	}
}

func run(t *testing.T, cfg Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(cfg, slog.Default(), nil)
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLegendCommand(t *testing.T) {
	out, err := run(t, Config{}, "legend")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Olson Global Ecosystem Legend")
	assert.Contains(t, out, "15: SEA WATER")

	path := filepath.Join(t.TempDir(), "legend.txt")
	require.NoError(t, os.WriteFile(path, []byte("Test Legend\n\n\n\n1 One\n2 Two\n"), 0o644))
	out, err = run(t, Config{}, "legend", path)
	require.NoError(t, err)
	assert.Contains(t, out, "name: Test Legend")
	assert.Contains(t, out, "2: Two")
}

func TestCommandErrors(t *testing.T) {
	_, err := run(t, Config{}, "info")
	assert.ErrorIs(t, err, errNoSource)

	_, err = run(t, Config{}, "cells", "0", "x", "1", "1", "file.tif")
	assert.ErrorContains(t, err, "argument 2")

	_, err = run(t, Config{Projection: "mercator"}, "histogram", "file.img")
	assert.ErrorContains(t, err, "unknown projection")

	_, err = run(t, Config{}, "plot")
	assert.Error(t, err)
}
