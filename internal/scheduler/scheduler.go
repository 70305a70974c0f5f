package scheduler

import (
	"github.com/specialistvlad/shadergrid/internal/graph"
	"github.com/specialistvlad/shadergrid/internal/node"
)

// DefaultScheduler is the reference implementation of the Scheduler interface.
// Its dependency counters are atomic, so it needs no lock of its own.
type DefaultScheduler struct {
	graph *graph.Graph
	nodes []*node.Node
	byID  map[string]*node.Node
}

// New creates a scheduler over g with fresh counters.
func New(g *graph.Graph) Scheduler {
	s := &DefaultScheduler{
		graph: g,
		byID:  make(map[string]*node.Node, g.Len()),
	}
	for _, step := range g.All() {
		n := node.New(step)
		// Dependencies cannot fail for a step that exists in the graph.
		deps, _ := g.Dependencies(step.ID)
		n.SetDepCount(int32(len(deps)))
		s.nodes = append(s.nodes, n)
		s.byID[step.ID] = n
	}
	return s
}

// Nodes implements Scheduler.
func (s *DefaultScheduler) Nodes() []*node.Node {
	return append([]*node.Node(nil), s.nodes...)
}

// Node implements Scheduler.
func (s *DefaultScheduler) Node(id string) (*node.Node, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// Roots implements Scheduler.
func (s *DefaultScheduler) Roots() []*node.Node {
	var roots []*node.Node
	for _, n := range s.nodes {
		if n.DepCount() == 0 {
			roots = append(roots, n)
		}
	}
	return roots
}

// Complete implements Scheduler.
func (s *DefaultScheduler) Complete(id string) []*node.Node {
	dependents, err := s.graph.Dependents(id)
	if err != nil {
		return nil
	}
	var ready []*node.Node
	for _, d := range dependents {
		n := s.byID[d.ID]
		if n.DecrementDepCount() == 0 {
			ready = append(ready, n)
		}
	}
	return ready
}

// Fail implements Scheduler.
func (s *DefaultScheduler) Fail(id string) []*node.Node {
	seen := map[string]bool{id: true}
	queue := []string{id}
	var out []*node.Node
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		dependents, err := s.graph.Dependents(cur)
		if err != nil {
			continue
		}
		for _, d := range dependents {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			out = append(out, s.byID[d.ID])
			queue = append(queue, d.ID)
		}
	}
	return out
}
