package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgard/makerletter/internal/config"
	"github.com/edgard/makerletter/internal/database"
	"github.com/edgard/makerletter/internal/gemini"
)

// ScheduledTaskFunc is the signature of every scheduled task. The context
// provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// TaskDeps holds the dependencies available to scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	AI     gemini.Client
	Config *config.Config
}

// RegisterAllTasks returns the registry of scheduled tasks. The map keys
// match the task names used in the scheduler configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	tasks["newsletter_pipeline"] = newPipelineTask(deps)
	tasks["sql_maintenance"] = newSQLMaintenanceTask(deps)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

// newPipelineTask creates the task that runs the full newsletter pipeline.
// Each run uses a fresh pipeline so campaign records get their own run ID.
func newPipelineTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "newsletter_pipeline")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled newsletter run")
		start := time.Now()

		p := New(deps.Config, deps.Store, deps.AI, deps.Logger)
		if err := p.Run(ctx, SendOptions{}); err != nil {
			log.ErrorContext(ctx, "Scheduled newsletter run failed", "error", err, "duration", time.Since(start))
			return fmt.Errorf("newsletter run failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled newsletter run completed", "duration", time.Since(start))
		return nil
	}
}

// newSQLMaintenanceTask creates the task that runs database maintenance.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting SQL maintenance task")
		start := time.Now()

		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance task failed", "error", err, "duration", time.Since(start))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance task completed", "duration", time.Since(start))
		return nil
	}
}
