package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/specialistvlad/shadergrid/internal/ctxlog"
	"github.com/specialistvlad/shadergrid/internal/executor"
	"github.com/specialistvlad/shadergrid/internal/notify"
	"github.com/specialistvlad/shadergrid/internal/project"
)

// Run builds every selected project in configuration order. A failing
// project does not stop the next one; all failures are returned joined.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.healthCheckServer(); err != nil {
		return err
	}
	defer a.closeHealthCheckServer()

	projects, err := a.selectProjects()
	if err != nil {
		return err
	}

	var errs []error
	for _, p := range projects {
		if err := a.runProject(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("project %s: %w", p.Name, err))
		}
		if ctx.Err() != nil {
			break
		}
	}

	a.logger.Debug("App.Run method finished.")
	return errors.Join(errs...)
}

func (a *App) selectProjects() ([]*project.Settings, error) {
	if len(a.config.Projects) == 0 {
		return a.project.Projects, nil
	}
	var out []*project.Settings
	for _, name := range a.config.Projects {
		p, ok := a.project.Project(name)
		if !ok {
			return nil, fmt.Errorf("unknown project %q in %s", name, a.project.Path)
		}
		out = append(out, p)
	}
	return out, nil
}

func (a *App) runProject(ctx context.Context, p *project.Settings) error {
	logger := a.logger.With("project", p.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Project settings.", "settings", p.String())

	sess, err := a.factory.NewSession(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer sess.Close(ctx)

	exec, err := sess.GetExecutor()
	if err != nil {
		return fmt.Errorf("failed to get executor: %w", err)
	}

	logger.Info("🚀 Starting shader build...", "steps", sess.Graph().Len(), "dry_run", a.config.DryRun)
	report, err := exec.Execute(ctx)
	if report != nil {
		logReport(logger, report)
	}
	if err != nil {
		return err
	}
	logger.Info("🏁 Build finished.")

	if report.Rebuilt() && a.notifier != nil {
		var metadata map[string]string
		if a.project.Notify != nil {
			metadata = a.project.Notify.Metadata
		}
		ev := notify.EventFromReport(p.Name, sess.Graph(), report, metadata)
		if err := a.notifier.Notify(ctx, ev); err != nil {
			logger.Warn("Rebuild notification failed", "error", err)
		}
	}

	if a.publisher != nil && !a.config.DryRun {
		if _, err := a.publisher.Publish(ctx, p.Name, sess.Graph()); err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}
	}
	return nil
}

func logReport(logger *slog.Logger, r *executor.Report) {
	args := []any{"duration", r.Duration}
	if len(r.Failed) > 0 {
		args = append(args, "failed_steps", r.Failed)
	}
	if r.DryRun && len(r.Executed) > 0 {
		args = append(args, "stale_steps", r.Executed)
	}
	switch {
	case len(r.Failed) > 0 || len(r.Skipped) > 0:
		logger.Error("❌ "+r.Summary(), args...)
	case r.DryRun:
		logger.Info("🔎 "+r.Summary(), args...)
	case len(r.Executed) == 0:
		logger.Info("✨ "+r.Summary(), args...)
	default:
		logger.Info("✅ "+r.Summary(), args...)
	}
}
