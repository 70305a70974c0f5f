package node

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/shadergrid/internal/buildstep"
)

// Node is the runtime wrapper of one build step. The step itself is
// immutable; the node carries the scheduling counters for one execution.
type Node struct {
	// Step is the build step this node executes.
	Step *buildstep.Step

	// --- Internal state management ---

	// depCount is an atomic counter for unmet dependencies, used by the scheduler.
	depCount atomic.Int32
	// finishOnce ensures a node is settled and released from the WaitGroup
	// exactly once, whether it ran or was skipped.
	finishOnce sync.Once
}

// New wraps step in a node with no unmet dependencies.
func New(step *buildstep.Step) *Node {
	return &Node{Step: step}
}

// ID returns the step ID.
func (n *Node) ID() string {
	return n.Step.ID
}

func (n *Node) SetDepCount(count int32) {
	n.depCount.Store(count)
}

// DepCount atomically returns the current number of unmet dependencies.
func (n *Node) DepCount() int32 {
	return n.depCount.Load()
}

// DecrementDepCount atomically decrements the dependency counter and returns the new value.
func (n *Node) DecrementDepCount() int32 {
	return n.depCount.Add(-1)
}

// Finish runs settle and then releases wg. It uses a sync.Once to guarantee
// this happens only once, returning true if this call did it.
func (n *Node) Finish(wg *sync.WaitGroup, settle func()) bool {
	var finished bool
	n.finishOnce.Do(func() {
		if settle != nil {
			settle()
		}
		wg.Done()
		finished = true
	})
	return finished
}

// Status is the execution status of a step.
type Status int32

const (
	// StatusPending indicates the step is waiting for its dependencies.
	StatusPending Status = iota
	// StatusRunning indicates a worker is checking or executing the step.
	StatusRunning
	// StatusCompleted indicates the step's command ran and produced its outputs.
	StatusCompleted
	// StatusUpToDate indicates the step was fresh and its command did not run.
	StatusUpToDate
	// StatusFailed indicates the staleness check or the command failed.
	StatusFailed
	// StatusSkipped indicates the step never started because another step failed.
	StatusSkipped
)

var statusNames = [...]string{
	StatusPending:   "pending",
	StatusRunning:   "running",
	StatusCompleted: "completed",
	StatusUpToDate:  "up_to_date",
	StatusFailed:    "failed",
	StatusSkipped:   "skipped",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

// MarshalText renders the status by name, so JSON maps read naturally.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusUpToDate, StatusFailed, StatusSkipped:
		return true
	}
	return false
}
