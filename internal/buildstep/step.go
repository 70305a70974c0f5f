// Package buildstep models one external-process invocation of the shader
// pipeline: a primary (triggering) input, auxiliary inputs that never trigger
// by themselves but participate in staleness, the artifacts the invocation
// must produce, and the command that produces them.
package buildstep

import (
	"strconv"
	"strings"
)

// Kind distinguishes per-file compile steps from the table step.
type Kind int

const (
	// Compile turns one shader source into one artifact.
	Compile Kind = iota
	// Table aggregates every compile artifact into the shader table.
	Table
)

func (k Kind) String() string {
	if k == Table {
		return "table"
	}
	return "compile"
}

// Artifact is a generated file and the ID of the only step allowed to
// produce it.
type Artifact struct {
	Path     string
	Producer string
}

// Command describes an external invocation.
type Command struct {
	Executable  string
	Args        []string
	Description string
}

// Argv returns the executable followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Executable}, c.Args...)
}

// String renders the command line, quoting arguments that contain spaces.
func (c Command) String() string {
	parts := c.Argv()
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\"") {
			parts[i] = strconv.Quote(p)
		}
	}
	return strings.Join(parts, " ")
}

// Step is immutable once built by the graph.
type Step struct {
	ID        string
	Kind      Kind
	Primary   string
	Auxiliary []string
	Outputs   []Artifact
	Command   Command

	// Fingerprint, when set, is compared against the content of StampPath
	// during staleness checks. It lets a step notice changes that leave
	// every timestamp untouched, such as a removed input.
	Fingerprint string
	StampPath   string
}

// Output returns the first declared output. Compile steps declare exactly one.
func (s *Step) Output() Artifact {
	if len(s.Outputs) == 0 {
		return Artifact{}
	}
	return s.Outputs[0]
}

// OutputPaths returns the paths of every declared output.
func (s *Step) OutputPaths() []string {
	paths := make([]string, len(s.Outputs))
	for i, o := range s.Outputs {
		paths[i] = o.Path
	}
	return paths
}

// Inputs returns the primary input followed by the auxiliary inputs.
func (s *Step) Inputs() []string {
	inputs := make([]string, 0, 1+len(s.Auxiliary))
	inputs = append(inputs, s.Primary)
	return append(inputs, s.Auxiliary...)
}
