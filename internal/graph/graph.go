package graph

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/shadergrid/internal/builderr"
	"github.com/specialistvlad/shadergrid/internal/buildstep"
)

// Graph is the immutable build graph of one invocation.
type Graph struct {
	steps []*buildstep.Step
	table *buildstep.Step

	byID       map[string]*buildstep.Step
	producers  map[string]string // artifact path -> step ID
	deps       map[string][]string
	dependents map[string][]string
}

// New indexes the given compile steps and table step and validates the
// result. Most callers want Assemble instead.
func New(steps []*buildstep.Step, table *buildstep.Step) (*Graph, error) {
	g := &Graph{
		steps:      slices.Clone(steps),
		table:      table,
		byID:       make(map[string]*buildstep.Step, len(steps)+1),
		producers:  make(map[string]string),
		deps:       make(map[string][]string),
		dependents: make(map[string][]string),
	}
	if table == nil {
		return nil, builderr.Configf("graph has no table step")
	}

	for _, s := range g.All() {
		if _, dup := g.byID[s.ID]; dup {
			return nil, builderr.Configf("duplicate step ID %q", s.ID)
		}
		g.byID[s.ID] = s
		for _, out := range s.Outputs {
			if prev, dup := g.producers[out.Path]; dup {
				return nil, builderr.Configf("artifact %q is produced by both %s and %s", out.Path, prev, s.ID)
			}
			g.producers[out.Path] = s.ID
		}
	}

	for _, s := range g.All() {
		seen := map[string]bool{}
		for _, in := range s.Inputs() {
			producer, ok := g.producers[in]
			if !ok || seen[producer] {
				continue
			}
			seen[producer] = true
			g.deps[s.ID] = append(g.deps[s.ID], producer)
			g.dependents[producer] = append(g.dependents[producer], s.ID)
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the structural invariants of the graph.
func (g *Graph) Validate() error {
	if len(g.steps) == 0 {
		return builderr.Configf("graph has no compile steps")
	}
	if g.table.Kind != buildstep.Table {
		return builderr.Configf("step %s is not a table step", g.table.ID)
	}

	produced := make(map[string]bool, len(g.steps))
	for _, s := range g.steps {
		if s.Kind != buildstep.Compile {
			return builderr.Configf("step %s is not a compile step", s.ID)
		}
		if len(s.Outputs) != 1 {
			return builderr.Configf("compile step %s declares %d outputs, want 1", s.ID, len(s.Outputs))
		}
		for _, in := range s.Inputs() {
			if producer, ok := g.producers[in]; ok {
				return builderr.Configf("compile step %s reads %q produced by %s", s.ID, in, producer)
			}
		}
		produced[s.Output().Path] = true
	}

	for _, s := range g.All() {
		for _, out := range s.Outputs {
			if out.Producer != s.ID {
				return builderr.Configf("artifact %q names producer %q but belongs to %s", out.Path, out.Producer, s.ID)
			}
		}
	}

	if g.table.Primary != g.steps[0].Primary {
		return builderr.Configf("table primary input %q is not the first shader %q", g.table.Primary, g.steps[0].Primary)
	}

	consumed := make(map[string]bool, len(produced))
	for _, in := range g.table.Auxiliary {
		if g.producers[in] == g.table.ID {
			return builderr.Configf("table reads its own output %q", in)
		}
		if _, ok := g.producers[in]; !ok {
			continue
		}
		if consumed[in] {
			return builderr.Configf("table lists artifact %q twice", in)
		}
		consumed[in] = true
	}
	for _, s := range g.steps {
		if !consumed[s.Output().Path] {
			return builderr.Configf("table omits artifact %q of %s", s.Output().Path, s.ID)
		}
	}
	if len(consumed) != len(produced) {
		return builderr.Configf("table artifact inputs do not match the produced artifact set")
	}
	return nil
}

// Steps returns the compile steps in discovery order.
func (g *Graph) Steps() []*buildstep.Step {
	return slices.Clone(g.steps)
}

// Table returns the table step.
func (g *Graph) Table() *buildstep.Step {
	return g.table
}

// All returns the compile steps followed by the table step.
func (g *Graph) All() []*buildstep.Step {
	all := make([]*buildstep.Step, 0, len(g.steps)+1)
	all = append(all, g.steps...)
	return append(all, g.table)
}

// Len returns the number of steps including the table.
func (g *Graph) Len() int {
	return len(g.steps) + 1
}

// Step looks up a step by ID.
func (g *Graph) Step(id string) (*buildstep.Step, bool) {
	s, ok := g.byID[id]
	return s, ok
}

// Artifacts returns the compile outputs in step order.
func (g *Graph) Artifacts() []buildstep.Artifact {
	out := make([]buildstep.Artifact, len(g.steps))
	for i, s := range g.steps {
		out[i] = s.Output()
	}
	return out
}

// Producer returns the ID of the step that produces path.
func (g *Graph) Producer(path string) (string, bool) {
	id, ok := g.producers[path]
	return id, ok
}

// Dependencies returns the steps id must wait for.
func (g *Graph) Dependencies(id string) ([]*buildstep.Step, error) {
	return g.lookup(id, g.deps)
}

// Dependents returns the steps waiting for id.
func (g *Graph) Dependents(id string) ([]*buildstep.Step, error) {
	return g.lookup(id, g.dependents)
}

func (g *Graph) lookup(id string, edges map[string][]string) ([]*buildstep.Step, error) {
	if _, ok := g.byID[id]; !ok {
		return nil, fmt.Errorf("step %q not found in graph", id)
	}
	ids := edges[id]
	out := make([]*buildstep.Step, len(ids))
	for i, dep := range ids {
		out[i] = g.byID[dep]
	}
	return out, nil
}
