// Package executor defines the interface for the build graph execution engine
// and the report it produces.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/shadergrid/internal/graph"
	"github.com/specialistvlad/shadergrid/internal/node"
	"github.com/specialistvlad/shadergrid/internal/nodestore"
)

// Executor is responsible for orchestrating the end-to-end execution of a
// build graph. It manages concurrency, interacts with the scheduler, and
// dispatches commands to the invoker.
//
// The report is returned even when err is non-nil.
type Executor interface {
	Execute(ctx context.Context) (*Report, error)
}

// Report summarizes one execution. Every list is in graph order.
type Report struct {
	// Executed lists the steps whose command ran. In a dry run it lists the
	// steps that would run.
	Executed []string
	UpToDate []string
	Failed   []string
	Skipped  []string

	DryRun   bool
	Duration time.Duration
}

// NewReport collects the final status of every step in g from store.
func NewReport(ctx context.Context, g *graph.Graph, store nodestore.Store) (*Report, error) {
	r := &Report{}
	for _, s := range g.All() {
		status, err := store.GetStatus(ctx, s.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read status of %s: %w", s.ID, err)
		}
		switch status {
		case node.StatusCompleted:
			r.Executed = append(r.Executed, s.ID)
		case node.StatusUpToDate:
			r.UpToDate = append(r.UpToDate, s.ID)
		case node.StatusFailed:
			r.Failed = append(r.Failed, s.ID)
		default:
			// Pending or Running at the end means the step never got a chance.
			r.Skipped = append(r.Skipped, s.ID)
		}
	}
	return r, nil
}

// Rebuilt reports whether any command ran.
func (r *Report) Rebuilt() bool {
	return len(r.Executed) > 0 && !r.DryRun
}

// Succeeded reports whether nothing failed or was skipped.
func (r *Report) Succeeded() bool {
	return len(r.Failed) == 0 && len(r.Skipped) == 0
}

// Ran reports whether the step with the given ID is in Executed.
func (r *Report) Ran(id string) bool {
	for _, e := range r.Executed {
		if e == id {
			return true
		}
	}
	return false
}

// Summary renders the counts on one line.
func (r *Report) Summary() string {
	verb := "executed"
	if r.DryRun {
		verb = "would run"
	}
	return fmt.Sprintf("%d %s, %d up to date, %d failed, %d skipped",
		len(r.Executed), verb, len(r.UpToDate), len(r.Failed), len(r.Skipped))
}
