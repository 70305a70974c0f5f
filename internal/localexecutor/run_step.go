package localexecutor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/shadergrid/internal/builderr"
	"github.com/specialistvlad/shadergrid/internal/buildstep"
	"github.com/specialistvlad/shadergrid/internal/ctxlog"
	"github.com/specialistvlad/shadergrid/internal/node"
)

// invalidator is implemented by caching staters.
type invalidator interface {
	Invalidate(names ...string)
}

// runStep checks one step and runs its command if it is stale. It returns
// the status the step should settle in.
func (e *Executor) runStep(ctx context.Context, n *node.Node) (node.Status, error) {
	logger := ctxlog.FromContext(ctx)
	step := n.Step

	if e.dryRun {
		return e.dryRunStep(ctx, step)
	}

	verdict, err := step.Check(e.stater)
	if err != nil {
		return node.StatusFailed, err
	}
	if !verdict.Stale {
		logger.Debug("Step is up to date.")
		e.store.SetOutput(ctx, step.ID, verdict)
		return node.StatusUpToDate, nil
	}

	logger.Info("▶️ "+step.Command.Description, "reason", verdict.String())
	for _, out := range step.OutputPaths() {
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return node.StatusFailed, stepError(step, "failed to create output directory", nil, err)
		}
	}

	// A stamp left over from an earlier success must not outlive a failed run.
	if err := removeIfExists(step.StampPath); err != nil {
		return node.StatusFailed, stepError(step, "failed to remove stamp", nil, err)
	}

	logger.Debug("Invoking command.", "command", step.Command.String())
	res, err := e.invoker.Run(ctx, step.Command)
	if err != nil {
		e.invalidate(step)
		return node.StatusFailed, stepError(step, "failed to run command", nil, err)
	}
	e.store.SetOutput(ctx, step.ID, res)

	if !res.Success() {
		e.discardOutputs(ctx, step)
		be := stepError(step, fmt.Sprintf("%s exited with status %d", filepath.Base(step.Command.Executable), res.ExitCode), res.Output, nil)
		be.ExitCode = res.ExitCode
		return node.StatusFailed, be
	}

	e.invalidate(step)
	missing, err := step.MissingOutputs(e.stater)
	if err != nil {
		return node.StatusFailed, err
	}
	if len(missing) > 0 {
		e.discardOutputs(ctx, step)
		return node.StatusFailed, stepError(step,
			"command succeeded but did not produce "+strings.Join(missing, ", "), res.Output, nil)
	}

	if err := step.WriteStamp(); err != nil {
		return node.StatusFailed, stepError(step, "", res.Output, err)
	}

	logger.Info("✅ Finished step", "duration", res.Duration)
	return node.StatusCompleted, nil
}

// dryRunStep reports whether the step would run. The table would run
// whenever any compile step would, and its artifacts may not exist yet, so
// it is not checked in that case.
func (e *Executor) dryRunStep(ctx context.Context, step *buildstep.Step) (node.Status, error) {
	logger := ctxlog.FromContext(ctx)

	if step.Kind == buildstep.Table && e.wouldRun.Load() {
		logger.Info("Would run.", "reason", "dependency would run")
		return node.StatusCompleted, nil
	}

	verdict, err := step.Check(e.stater)
	if err != nil {
		return node.StatusFailed, err
	}
	e.store.SetOutput(ctx, step.ID, verdict)
	if !verdict.Stale {
		return node.StatusUpToDate, nil
	}

	e.wouldRun.Store(true)
	logger.Info("Would run.", "reason", verdict.String(), "command", step.Command.String())
	return node.StatusCompleted, nil
}

func (e *Executor) invalidate(step *buildstep.Step) {
	if inv, ok := e.stater.(invalidator); ok {
		inv.Invalidate(step.OutputPaths()...)
	}
}

// discardOutputs deletes whatever a failed command left behind, so the next
// run cannot mistake a partial output for a fresh one.
func (e *Executor) discardOutputs(ctx context.Context, step *buildstep.Step) {
	for _, out := range step.OutputPaths() {
		if err := removeIfExists(out); err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to remove output of failed step.", "path", out, "error", err)
		}
	}
	e.invalidate(step)
}

func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func stepError(step *buildstep.Step, msg string, output []byte, err error) *builderr.Error {
	kind := builderr.ErrCompile
	if step.Kind == buildstep.Table {
		kind = builderr.ErrAggregation
	}
	return &builderr.Error{Kind: kind, Step: step.ID, Msg: msg, Output: output, Err: err}
}
