// Package localsession provides a concrete implementation of the session.Session
// and session.SessionFactory interfaces for local, in-process execution.
package localsession

import (
	"context"
	"fmt"

	"github.com/specialistvlad/shadergrid/internal/classify"
	"github.com/specialistvlad/shadergrid/internal/ctxlog"
	"github.com/specialistvlad/shadergrid/internal/executor"
	"github.com/specialistvlad/shadergrid/internal/fsutil"
	"github.com/specialistvlad/shadergrid/internal/graph"
	"github.com/specialistvlad/shadergrid/internal/inmemorystore"
	"github.com/specialistvlad/shadergrid/internal/invoker"
	"github.com/specialistvlad/shadergrid/internal/localexecutor"
	"github.com/specialistvlad/shadergrid/internal/nodestore"
	"github.com/specialistvlad/shadergrid/internal/project"
	"github.com/specialistvlad/shadergrid/internal/scheduler"
	"github.com/specialistvlad/shadergrid/internal/session"
)

// SessionFactory implements session.SessionFactory for local runs.
type SessionFactory struct {
	// Invoker runs commands. Nil means local processes.
	Invoker invoker.Invoker
	// Workers is the size of the worker pool.
	Workers int
	// DryRun reports stale steps without running them.
	DryRun bool
	// StatCacheSize bounds the stat cache. Zero selects the default.
	StatCacheSize int
	// OnSession, if set, is called with every session as soon as it is
	// wired, before execution starts.
	OnSession func(session.Session)
}

// NewSession discovers and classifies the project's sources, assembles the
// graph and wires an executor over it.
func (f *SessionFactory) NewSession(ctx context.Context, settings *project.Settings) (session.Session, error) {
	logger := ctxlog.FromContext(ctx).With("project", settings.Name)
	logger.Debug("localsession.SessionFactory.NewSession called")

	paths, err := fsutil.Discover(settings.SourceDir, settings.SkipDirs()...)
	if err != nil {
		return nil, fmt.Errorf("failed to discover sources in %s: %w", settings.SourceDir, err)
	}
	rules := classify.DefaultRules().WithIncludeSuffixes(settings.IncludeSuffixes...)
	files := classify.Classify(paths, rules)
	logger.Debug("Discovery complete.",
		"files", len(paths),
		"shaders", len(files.Shaders),
		"includes", len(files.Includes),
		"other", len(files.Other),
	)

	layout, err := LayoutFor(settings)
	if err != nil {
		return nil, err
	}
	g, err := graph.Assemble(ctxlog.WithLogger(ctx, logger), files, layout)
	if err != nil {
		return nil, err
	}

	stater, err := fsutil.NewCachedStater(fsutil.OSStater{}, f.StatCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create stat cache: %w", err)
	}
	inv := f.Invoker
	if inv == nil {
		inv = invoker.NewExec("")
	}

	// --- This is where the dependency injection wiring happens ---
	nodeStore := inmemorystore.New()
	sched := scheduler.New(g)
	exec := localexecutor.New(g, sched, nodeStore, inv, localexecutor.Options{
		Workers: f.Workers,
		DryRun:  f.DryRun,
		Stater:  stater,
	})
	// --- End of dependency injection ---

	s := &Session{
		name:     settings.Name,
		executor: exec,
		graph:    g,
		store:    nodeStore,
	}
	if f.OnSession != nil {
		f.OnSession(s)
	}
	return s, nil
}

// LayoutFor converts project settings into a graph layout.
func LayoutFor(s *project.Settings) (graph.Layout, error) {
	mode, err := graph.ParseStalenessMode(s.TableStaleness)
	if err != nil {
		return graph.Layout{}, err
	}
	return graph.Layout{
		ArtifactDir: s.ArtifactDir,
		TableHeader: s.TableHeader,
		TableSource: s.TableSource,
		Compiler:    graph.Tool(s.Compiler),
		Generator:   graph.Tool(s.Generator),
		Staleness:   mode,
	}, nil
}

// Session implements session.Session for local runs.
type Session struct {
	name     string
	executor executor.Executor
	graph    *graph.Graph
	store    nodestore.Store
}

// GetExecutor returns the executor that was created and wired up by the factory.
func (s *Session) GetExecutor() (executor.Executor, error) {
	return s.executor, nil
}

// Name implements session.Session.
func (s *Session) Name() string {
	return s.name
}

// Graph implements session.Session.
func (s *Session) Graph() *graph.Graph {
	return s.graph
}

// Store implements session.Session.
func (s *Session) Store() nodestore.Store {
	return s.store
}

// Close uses the provided context for logging during cleanup.
func (s *Session) Close(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Session closed.", "steps", s.graph.Len())
	return nil
}
