// Package invoker runs the external processes behind build steps.
//
// The pipeline core never interprets what a tool prints. It looks only at the
// exit code and, separately, at whether the declared outputs exist. Invokers
// therefore return the exit status and the captured output, and report an
// error only when the process could not be run at all.
//
// No timeout or cancellation is applied here. A hung compiler blocks the step,
// and with it the run, until it exits.
package invoker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/specialistvlad/shadergrid/internal/buildstep"
	"github.com/specialistvlad/shadergrid/internal/ctxlog"
)

// Result is the outcome of a process that was started.
type Result struct {
	ExitCode int
	Output   []byte
	Duration time.Duration
}

// Success reports whether the process exited with status zero.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Invoker executes a command.
type Invoker interface {
	Run(ctx context.Context, cmd buildstep.Command) (*Result, error)
}

// Exec runs commands as local processes.
type Exec struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is appended to the current environment.
	Env []string
}

// NewExec returns an Exec invoker rooted at dir.
func NewExec(dir string) *Exec {
	return &Exec{Dir: dir}
}

// Run implements Invoker. The context only carries the logger; a dispatched
// command always runs to completion.
func (e *Exec) Run(ctx context.Context, cmd buildstep.Command) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	if cmd.Executable == "" {
		return nil, errors.New("command has no executable")
	}

	c := exec.Command(cmd.Executable, cmd.Args...)
	c.Dir = e.Dir
	if len(e.Env) > 0 {
		c.Env = append(os.Environ(), e.Env...)
	}

	logger.Debug("Spawning external process.", "command", cmd.String(), "dir", e.Dir)
	start := time.Now()
	out, err := c.CombinedOutput()
	res := &Result{Output: out, Duration: time.Since(start)}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			logger.Debug("External process exited with failure.", "exit_code", res.ExitCode, "duration", res.Duration)
			return res, nil
		}
		return nil, fmt.Errorf("failed to start %q: %w", cmd.Executable, err)
	}

	logger.Debug("External process finished.", "duration", res.Duration)
	return res, nil
}
