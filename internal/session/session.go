// Package session defines the core interfaces for creating and managing an
// execution session: one project, one graph, one execution.
package session

import (
	"context"

	"github.com/specialistvlad/shadergrid/internal/executor"
	"github.com/specialistvlad/shadergrid/internal/graph"
	"github.com/specialistvlad/shadergrid/internal/nodestore"
	"github.com/specialistvlad/shadergrid/internal/project"
)

// SessionFactory creates an execution Session for a project.
type SessionFactory interface {
	NewSession(ctx context.Context, settings *project.Settings) (Session, error)
}

// Session represents a single execution run and manages its lifecycle.
type Session interface {
	// Name returns the project the session builds.
	Name() string
	GetExecutor() (executor.Executor, error)
	// Graph returns the graph assembled for this session.
	Graph() *graph.Graph
	// Store returns the live execution state.
	Store() nodestore.Store
	// Close releases any resources held by the session. It accepts a context
	// to allow for graceful cleanup operations.
	Close(ctx context.Context) error
}
