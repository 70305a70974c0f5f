package localexecutor

import (
	"context"

	"github.com/specialistvlad/shadergrid/internal/builderr"
	"github.com/specialistvlad/shadergrid/internal/ctxlog"
	"github.com/specialistvlad/shadergrid/internal/node"
)

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *node.Node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range readyChan {
		workerLogger := logger.With("workerID", workerID, "step", n.ID())

		if ctx.Err() != nil {
			e.skip(ctx, n)
			e.skipDependents(ctx, n)
			continue
		}

		workerLogger.Debug("Worker picked up step.")
		e.store.SetStatus(ctx, n.ID(), node.StatusRunning)

		status, err := e.runStep(ctxlog.WithLogger(ctx, workerLogger), n)
		if err != nil {
			args := []any{"error", err}
			if out := builderr.Output(err); len(out) > 0 {
				args = append(args, "output", string(out))
			}
			workerLogger.Error("Step failed.", args...)
			e.recordFailure(err)
			n.Finish(&e.wg, func() {
				e.store.SetError(ctx, n.ID(), err)
				e.store.SetStatus(ctx, n.ID(), node.StatusFailed)
			})
			cancel()
			e.skipDependents(ctx, n)
			continue
		}

		// Unlock dependents before releasing this node from the WaitGroup,
		// otherwise Wait could return while the table is still pending.
		for _, dependent := range e.sched.Complete(n.ID()) {
			workerLogger.Debug("Unlocking dependent step.", "dependent", dependent.ID())
			readyChan <- dependent
		}
		n.Finish(&e.wg, func() {
			e.store.SetStatus(ctx, n.ID(), status)
		})
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// skip settles a step that never started.
func (e *Executor) skip(ctx context.Context, n *node.Node) {
	if n.Finish(&e.wg, func() { e.store.SetStatus(ctx, n.ID(), node.StatusSkipped) }) {
		ctxlog.FromContext(ctx).Debug("Step skipped.", "step", n.ID())
	}
}

// skipDependents settles every transitive dependent of a failed step.
func (e *Executor) skipDependents(ctx context.Context, n *node.Node) {
	for _, d := range e.sched.Fail(n.ID()) {
		e.skip(ctx, d)
	}
}
