package graph

import (
	"fmt"

	"github.com/specialistvlad/shadergrid/internal/buildstep"
)

// TableID is the ID of the table step.
const TableID = "table"

// newTableStep builds the aggregation step over steps. The primary input is
// the first shader in discovery order and only serves change detection; the
// auxiliary inputs are every artifact followed by every shader source.
func newTableStep(steps []*buildstep.Step, l Layout) *buildstep.Step {
	artifacts := make([]string, len(steps))
	shaders := make([]string, len(steps))
	for i, s := range steps {
		artifacts[i] = s.Output().Path
		shaders[i] = s.Primary
	}

	aux := make([]string, 0, 2*len(steps))
	aux = append(aux, artifacts...)
	aux = append(aux, shaders...)

	args := make([]string, 0, len(l.Generator.Args)+5+len(artifacts))
	args = append(args, l.Generator.Args...)
	args = append(args,
		"--output_header", l.TableHeader,
		"--output_source", l.TableSource,
		"--inputs",
	)
	args = append(args, artifacts...)

	step := &buildstep.Step{
		ID:        TableID,
		Kind:      buildstep.Table,
		Primary:   steps[0].Primary,
		Auxiliary: aux,
		Outputs: []buildstep.Artifact{
			{Path: l.TableHeader, Producer: TableID},
			{Path: l.TableSource, Producer: TableID},
		},
		Command: buildstep.Command{
			Executable:  l.Generator.Executable,
			Args:        args,
			Description: fmt.Sprintf("Generating shader table from %d artifacts", len(artifacts)),
		},
	}
	if l.Staleness != ModeRepresentative {
		step.Fingerprint = ManifestDigest(artifacts)
		step.StampPath = l.StampPath()
	}
	return step
}
