// Package scheduler decides which build steps are ready to run.
//
// # How It Works
//
// Every step starts with a counter of unmet dependencies. Steps whose counter
// is zero are the roots and are handed to the executor first. When a step
// finishes successfully, or is found up to date, Complete decrements the
// counter of each dependent and returns those that reached zero. When a step
// fails, Fail returns every transitive dependent so the executor can skip
// them. A failed step never decrements anything, so the table step can only
// become ready after every compile step succeeded.
//
// # Relationship with Other Components
//
//   - **Graph:** provides the static dependency edges
//   - **Executor:** seeds its ready channel with Roots and feeds Complete and
//     Fail with the outcome of each step
package scheduler

import "github.com/specialistvlad/shadergrid/internal/node"

// Scheduler tracks dependency satisfaction for one execution.
//
// # Thread-Safety
//
// Complete and Fail are called concurrently by executor workers.
// Implementations must hand out each ready node exactly once.
type Scheduler interface {
	// Nodes returns every node in graph order.
	Nodes() []*node.Node

	// Node looks up a node by step ID.
	Node(id string) (*node.Node, bool)

	// Roots returns the nodes with no dependencies.
	Roots() []*node.Node

	// Complete records the success of id and returns the dependents that
	// became ready as a result.
	Complete(id string) []*node.Node

	// Fail returns the transitive dependents of id, which can no longer run.
	Fail(id string) []*node.Node
}
