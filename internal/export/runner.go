// Package export runs DiscordChatExporter to produce JSON channel exports.
package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/makerletter/internal/config"
)

// Runner invokes the external exporter binary.
type Runner struct {
	cfg config.ExportConfig
	log *slog.Logger
}

// NewRunner creates an export runner from configuration.
func NewRunner(cfg config.ExportConfig, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{cfg: cfg, log: log.With("component", "export")}
}

// Run exports every channel of the configured guild as JSON into the
// output directory. The Discord token never appears in log output.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.Token == "" {
		return fmt.Errorf("discord token is not configured")
	}
	if r.cfg.GuildID == "" {
		return fmt.Errorf("guild ID is not configured")
	}

	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	args := []string{
		"exportguild",
		"-t", r.cfg.Token,
		"-g", r.cfg.GuildID,
		"-f", "Json",
		"-o", filepath.Join(r.cfg.OutputDir, "%C.json"),
	}
	if r.cfg.After != "" {
		args = append(args, "--after", r.cfg.After)
	}
	if r.cfg.Before != "" {
		args = append(args, "--before", r.cfg.Before)
	}

	r.log.Info("Running exporter",
		"binary", r.cfg.Binary,
		"guild_id", r.cfg.GuildID,
		"output_dir", r.cfg.OutputDir,
		"after", r.cfg.After,
		"before", r.cfg.Before)

	cmd := exec.CommandContext(ctx, r.cfg.Binary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start exporter: %w", err)
	}

	g := &errgroup.Group{}
	g.Go(func() error {
		r.pump(stdout, slog.LevelInfo)
		return nil
	})
	g.Go(func() error {
		r.pump(stderr, slog.LevelWarn)
		return nil
	})
	_ = g.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("exporter failed: %w", err)
	}

	r.log.Info("Export completed", "output_dir", r.cfg.OutputDir)
	return nil
}

func (r *Runner) pump(reader io.Reader, level slog.Level) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		r.log.Log(context.Background(), level, line)
	}
}
