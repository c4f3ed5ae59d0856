package export

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/makerletter/internal/config"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

// fakeExporter writes a shell script standing in for the export binary.
func fakeExporter(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exporter.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestRunMissingToken(t *testing.T) {
	t.Parallel()

	log, _ := captureLogger()
	r := NewRunner(config.ExportConfig{GuildID: "123", OutputDir: t.TempDir()}, log)
	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is not configured")
}

func TestRunMissingGuildID(t *testing.T) {
	t.Parallel()

	log, _ := captureLogger()
	r := NewRunner(config.ExportConfig{Token: "tok", OutputDir: t.TempDir()}, log)
	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "guild ID is not configured")
}

func TestRunPumpsOutputWithoutToken(t *testing.T) {
	t.Parallel()

	log, buf := captureLogger()
	outDir := filepath.Join(t.TempDir(), "out")
	r := NewRunner(config.ExportConfig{
		Binary:    fakeExporter(t, `echo "exporting channel general"; echo "a warning" >&2`),
		Token:     "super-secret-token",
		GuildID:   "123",
		After:     "2026-08-01",
		OutputDir: outDir,
	}, log)

	require.NoError(t, r.Run(context.Background()))

	logs := buf.String()
	assert.Contains(t, logs, "exporting channel general")
	assert.Contains(t, logs, "a warning")
	assert.NotContains(t, logs, "super-secret-token", "the token must never be logged")

	// The output directory is created before the tool runs.
	info, err := os.Stat(outDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRunToolFailure(t *testing.T) {
	t.Parallel()

	log, _ := captureLogger()
	r := NewRunner(config.ExportConfig{
		Binary:    fakeExporter(t, "exit 3"),
		Token:     "tok",
		GuildID:   "123",
		OutputDir: t.TempDir(),
	}, log)

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exporter failed")
}
