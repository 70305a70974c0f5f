// Package nodestore defines the interface for storing and retrieving the
// mutable execution state of build steps during one pipeline run.
//
// # Lifecycle and Usage
//
// The node store is:
//  1. **Created** once per session (ephemeral, not persistent across runs)
//  2. **Initialized** with every step in Pending status before execution starts
//  3. **Mutated** by executor workers as steps transition through states
//  4. **Queried** by the report builder and the /status endpoint
//  5. **Discarded** when the session ends
//
// # State Transitions
//
// Steps follow this lifecycle:
//
//	Pending → Running → Completed | UpToDate | Failed
//	Pending → Skipped
package nodestore

import (
	"context"

	"github.com/specialistvlad/shadergrid/internal/node"
)

// Store manages the mutable execution state of steps, keyed by step ID.
//
// Implementations MUST be safe for concurrent reads and writes: workers
// update state while the status endpoint reads it.
type Store interface {
	// SetStatus updates the execution status of a step.
	SetStatus(ctx context.Context, id string, status node.Status) error

	// GetStatus returns StatusPending if no status has been set yet.
	GetStatus(ctx context.Context, id string) (node.Status, error)

	// SetOutput records what a step produced: the invoker result for steps
	// that ran, or the staleness verdict for steps that did not.
	SetOutput(ctx context.Context, id string, output any) error

	// GetOutput returns nil if nothing was recorded.
	GetOutput(ctx context.Context, id string) (any, error)

	// SetError records the failure of a step.
	SetError(ctx context.Context, id string, stepErr error) error

	// GetError returns nil if the step did not fail.
	GetError(ctx context.Context, id string) (error, error)

	// Snapshot returns the status of every step seen so far.
	Snapshot(ctx context.Context) (map[string]node.Status, error)
}
