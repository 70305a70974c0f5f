package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/specialistvlad/shadergrid/internal/builderr"
	"github.com/specialistvlad/shadergrid/internal/buildstep"
	"github.com/specialistvlad/shadergrid/internal/classify"
	"github.com/specialistvlad/shadergrid/internal/ctxlog"
)

// CompileID returns the ID of the compile step for a shader source.
func CompileID(shader string) string {
	return "compile:" + filepath.Base(shader)
}

// Assemble builds the graph for the classified files. Every compile step
// lists every include as an auxiliary input.
func Assemble(ctx context.Context, files classify.Result, l Layout) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)

	if err := l.validate(); err != nil {
		return nil, err
	}
	if len(files.Shaders) == 0 {
		return nil, builderr.Configf("no shader sources found")
	}

	includes := classify.Paths(files.Includes)
	owners := make(map[string]string, len(files.Shaders))
	steps := make([]*buildstep.Step, 0, len(files.Shaders))

	for _, src := range files.Shaders {
		base := src.Name()
		if prev, ok := owners[base]; ok {
			return nil, builderr.Configf("shader name collision: %q and %q would both produce %q",
				prev, src.Path, l.ArtifactPath(src.Path))
		}
		owners[base] = src.Path

		step := newCompileStep(src, includes, l)
		logger.Debug("Compile step created.", "step", step.ID, "stage", src.Stage, "output", step.Output().Path)
		steps = append(steps, step)
	}

	g, err := New(steps, newTableStep(steps, l))
	if err != nil {
		return nil, err
	}
	logger.Debug("Graph assembled.",
		"compile_steps", len(steps),
		"includes", len(includes),
		"table_staleness", string(l.Staleness),
	)
	return g, nil
}

func newCompileStep(src classify.SourceFile, includes []string, l Layout) *buildstep.Step {
	id := CompileID(src.Path)
	out := l.ArtifactPath(src.Path)

	args := make([]string, 0, len(l.Compiler.Args)+3+len(l.Compiler.ToolArgs))
	args = append(args, l.Compiler.Args...)
	args = append(args, src.Path, "-o", out)
	args = append(args, l.Compiler.ToolArgs...)

	return &buildstep.Step{
		ID:        id,
		Kind:      buildstep.Compile,
		Primary:   src.Path,
		Auxiliary: slices.Clone(includes),
		Outputs:   []buildstep.Artifact{{Path: out, Producer: id}},
		Command: buildstep.Command{
			Executable:  l.Compiler.Executable,
			Args:        args,
			Description: fmt.Sprintf("Compiling %s shader %s", src.Stage, src.Name()),
		},
	}
}
