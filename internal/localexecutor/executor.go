// Package localexecutor provides a concrete, in-process implementation of the
// executor.Executor interface: a fixed pool of workers fed by a ready channel.
//
// Compile steps run in parallel. The table step enters the ready channel only
// when the last compile step has succeeded or been found up to date. After
// the first failure no further step starts; steps already running finish.
package localexecutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/shadergrid/internal/ctxlog"
	"github.com/specialistvlad/shadergrid/internal/executor"
	"github.com/specialistvlad/shadergrid/internal/fsutil"
	"github.com/specialistvlad/shadergrid/internal/graph"
	"github.com/specialistvlad/shadergrid/internal/invoker"
	"github.com/specialistvlad/shadergrid/internal/node"
	"github.com/specialistvlad/shadergrid/internal/nodestore"
	"github.com/specialistvlad/shadergrid/internal/scheduler"
)

// Options tune an Executor.
type Options struct {
	// Workers is the number of concurrent workers. Values below 1 mean 1.
	Workers int
	// DryRun checks staleness without invoking anything.
	DryRun bool
	// Stater reads file metadata. Defaults to fsutil.OSStater.
	Stater fsutil.Stater
}

// Executor implements the executor.Executor interface for local execution.
type Executor struct {
	graph   *graph.Graph
	sched   scheduler.Scheduler
	store   nodestore.Store
	invoker invoker.Invoker
	stater  fsutil.Stater
	workers int
	dryRun  bool

	wg       sync.WaitGroup
	wouldRun atomic.Bool

	mu       sync.Mutex
	failures []error
}

// New creates a new local executor.
func New(
	g *graph.Graph,
	sch scheduler.Scheduler,
	store nodestore.Store,
	inv invoker.Invoker,
	opts Options,
) *Executor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Stater == nil {
		opts.Stater = fsutil.OSStater{}
	}
	return &Executor{
		graph:   g,
		sched:   sch,
		store:   store,
		invoker: inv,
		stater:  opts.Stater,
		workers: opts.Workers,
		dryRun:  opts.DryRun,
	}
}

var _ executor.Executor = (*Executor)(nil)

// Execute runs the graph to completion. The returned error joins every step
// failure; the report is returned alongside it.
func (e *Executor) Execute(ctx context.Context) (*executor.Report, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()
	parent := ctx

	// Cancelling only stops dispatch. Invocations already started run to
	// completion.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	nodes := e.sched.Nodes()
	for _, n := range nodes {
		if err := e.store.SetStatus(ctx, n.ID(), node.StatusPending); err != nil {
			return nil, fmt.Errorf("failed to initialize status of %s: %w", n.ID(), err)
		}
	}

	// The channel can hold every node, so sends from workers never block.
	readyChan := make(chan *node.Node, len(nodes))
	e.wg.Add(len(nodes))
	for _, n := range e.sched.Roots() {
		readyChan <- n
	}

	logger.Debug("Starting workers.", "workers", e.workers, "steps", len(nodes), "dry_run", e.dryRun)
	for i := 0; i < e.workers; i++ {
		go e.worker(ctx, readyChan, cancel, i)
	}

	e.wg.Wait()
	close(readyChan)

	report, err := executor.NewReport(parent, e.graph, e.store)
	if err != nil {
		return nil, err
	}
	report.DryRun = e.dryRun
	report.Duration = time.Since(start)

	if len(e.failures) > 0 {
		return report, fmt.Errorf("execution failed for %s: %w", strings.Join(report.Failed, ", "), errors.Join(e.failures...))
	}
	if err := parent.Err(); err != nil && len(report.Skipped) > 0 {
		return report, fmt.Errorf("execution interrupted: %w", err)
	}
	return report, nil
}

func (e *Executor) recordFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, err)
}
