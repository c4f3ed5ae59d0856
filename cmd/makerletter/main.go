// Package main contains the entrypoint for the newsletter pipeline CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/makerletter/internal/config"
	"github.com/edgard/makerletter/internal/database"
	"github.com/edgard/makerletter/internal/errs"
	"github.com/edgard/makerletter/internal/gemini"
	"github.com/edgard/makerletter/internal/logger"
	"github.com/edgard/makerletter/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(errs.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "makerletter",
		Short:         "Turn Discord chat exports into a curated email newsletter",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config.yaml", "path to configuration file")

	rootCmd.AddCommand(
		exportCmd(&configPath),
		gatherCmd(&configPath),
		curateCmd(&configPath),
		renderCmd(&configPath),
		sendCmd(&configPath),
		runCmd(&configPath),
		scheduleCmd(&configPath),
	)
	return rootCmd
}

// app holds everything a command needs once configuration is loaded.
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	store database.Store
	ai    gemini.Client
	close func()
}

// appOptions selects which optional dependencies a command needs. wantAI
// initializes the AI client only when an API key is configured, needAI
// makes a missing key a configuration error.
type appOptions struct {
	needDB bool
	needAI bool
	wantAI bool
}

// setup loads configuration and initializes the selected dependencies.
func setup(ctx context.Context, configPath string, opts appOptions) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errs.Wrap(errs.CodeConfig, "failed to load configuration", err)
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)

	a := &app{cfg: cfg, log: log, close: func() {}}

	if opts.needDB {
		db, err := database.NewDB(cfg.Database.Path)
		if err != nil {
			return nil, errs.Wrap(errs.CodeConfig, "failed to open database", err)
		}
		a.store = database.NewStore(db, log)
		a.close = func() { database.CloseDB(db) }
	}

	if opts.needAI && cfg.Gemini.APIKey == "" {
		a.close()
		return nil, errs.New(errs.CodeConfig, "gemini api_key is not configured")
	}
	if opts.needAI || (opts.wantAI && cfg.Gemini.APIKey != "") {
		ai, err := gemini.NewClient(ctx, cfg.Gemini, log)
		if err != nil {
			a.close()
			return nil, errs.Wrap(errs.CodeConfig, "failed to initialize AI client", err)
		}
		a.ai = ai
	}

	return a, nil
}

func (a *app) pipeline() *pipeline.Pipeline {
	return pipeline.New(a.cfg, a.store, a.ai, a.log)
}

func exportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export Discord channels to JSON files",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()
			return a.pipeline().Export(cmd.Context())
		},
	}
}

func gatherCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "gather",
		Short: "Scan exports for links and build conversation contexts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath, appOptions{needDB: true, wantAI: true})
			if err != nil {
				return err
			}
			defer a.close()
			return a.pipeline().Gather(cmd.Context())
		},
	}
}

func curateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "curate",
		Short: "Select and group links with the AI editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath, appOptions{needAI: true})
			if err != nil {
				return err
			}
			defer a.close()
			return a.pipeline().Curate(cmd.Context())
		},
	}
}

func renderCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Render the newsletter HTML from the curated links",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()
			return a.pipeline().Render(cmd.Context())
		},
	}
}

func sendCmd(configPath *string) *cobra.Command {
	var opts pipeline.SendOptions

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Create and start a campaign from the rendered newsletter",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath, appOptions{needDB: true})
			if err != nil {
				return err
			}
			defer a.close()
			return a.pipeline().Send(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "create the campaign but do not start it")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "campaign subject (default is generated)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "campaign name (defaults to the subject)")
	return cmd
}

func runCmd(configPath *string) *cobra.Command {
	var opts pipeline.SendOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: export, gather, curate, render, send",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath, appOptions{needDB: true, wantAI: true})
			if err != nil {
				return err
			}
			defer a.close()
			return a.pipeline().Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "create the campaign but do not start it")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "campaign subject (default is generated)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "campaign name (defaults to the subject)")
	return cmd
}

func scheduleCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the configured tasks on their cron schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := setup(ctx, *configPath, appOptions{needDB: true, wantAI: true})
			if err != nil {
				return err
			}
			defer a.close()

			taskMap := pipeline.RegisterAllTasks(pipeline.TaskDeps{
				Logger: a.log,
				Store:  a.store,
				AI:     a.ai,
				Config: a.cfg,
			})
			sched, err := pipeline.NewScheduler(a.log, &a.cfg.Scheduler, taskMap)
			if err != nil {
				return errs.Wrap(errs.CodeConfig, "failed to create scheduler", err)
			}

			g, gCtx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := sched.Start(); err != nil {
					return err
				}
				<-gCtx.Done()
				return sched.Stop()
			})

			a.log.Info("Scheduler running, press Ctrl+C to stop")
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.log.Info("Shutdown complete")
			return nil
		},
	}
}
