package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/specialistvlad/shadergrid/internal/ctxlog"
	"github.com/specialistvlad/shadergrid/internal/graph"
	"github.com/specialistvlad/shadergrid/internal/invoker"
	"github.com/specialistvlad/shadergrid/internal/localsession"
	"github.com/specialistvlad/shadergrid/internal/notify"
	"github.com/specialistvlad/shadergrid/internal/project"
	"github.com/specialistvlad/shadergrid/internal/publish"
	"github.com/specialistvlad/shadergrid/internal/session"
)

// Publisher uploads the outputs of a finished build.
type Publisher interface {
	Publish(ctx context.Context, name string, g *graph.Graph) ([]publish.Object, error)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	ctx     context.Context
	config  *Config
	project *project.Config

	invoker   invoker.Invoker
	factory   session.SessionFactory
	notifier  notify.Notifier
	publisher Publisher

	status     *statusBoard
	httpServer *http.Server
}

// Option customizes an App. Options exist mainly for tests.
type Option func(*App)

// WithInvoker replaces the process invoker used by build steps.
func WithInvoker(inv invoker.Invoker) Option {
	return func(a *App) { a.invoker = inv }
}

// WithNotifier replaces the notifier built from the notify block.
func WithNotifier(n notify.Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// WithPublisher replaces the publisher built from the publish block.
func WithPublisher(p Publisher) Option {
	return func(a *App) { a.publisher = p }
}

// NewApp is the constructor for the main application. It loads the
// environment file and the configuration file and wires the session
// factory, notifier and publisher.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if err := loadEnv(ctx, cfg); err != nil {
		return nil, err
	}

	projectCfg, err := project.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded.", "path", projectCfg.Path, "projects", len(projectCfg.Projects))

	a := &App{
		outW:    outW,
		logger:  logger,
		ctx:     ctx,
		config:  cfg,
		project: projectCfg,
		status:  newStatusBoard(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.factory = &localsession.SessionFactory{
		Invoker:   a.invoker,
		Workers:   cfg.WorkerCount,
		DryRun:    cfg.DryRun,
		OnSession: a.status.track,
	}

	if a.notifier == nil && projectCfg.Notify != nil {
		a.notifier = notify.NewSocketIO(projectCfg.Notify)
		logger.Debug("Rebuild notifications enabled.", "url", projectCfg.Notify.URL)
	}
	if a.publisher == nil && projectCfg.Publish != nil {
		p, err := publish.New(projectCfg.Publish)
		if err != nil {
			return nil, fmt.Errorf("failed to configure publishing: %w", err)
		}
		a.publisher = p
		logger.Debug("Publishing enabled.", "endpoint", projectCfg.Publish.Endpoint, "bucket", projectCfg.Publish.Bucket)
	}

	return a, nil
}

// loadEnv populates the process environment from the env file. Variables
// that are already set win.
func loadEnv(ctx context.Context, cfg *Config) error {
	logger := ctxlog.FromContext(ctx)
	err := godotenv.Load(cfg.EnvFile)
	switch {
	case err == nil:
		logger.Debug("Environment file loaded.", "path", cfg.EnvFile)
		return nil
	case errors.Is(err, fs.ErrNotExist) && !cfg.EnvFileExplicit:
		logger.Debug("No environment file found.", "path", cfg.EnvFile)
		return nil
	default:
		return fmt.Errorf("failed to load environment file %s: %w", cfg.EnvFile, err)
	}
}

// Project returns the loaded configuration. This is primarily for testing.
func (a *App) Project() *project.Config {
	return a.project
}
