// Package shadercompile compiles one shader source into a header holding a
// byte array per entry point, by running dxc once per entry point.
package shadercompile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/specialistvlad/shadergrid/internal/buildstep"
	"github.com/specialistvlad/shadergrid/internal/classify"
	"github.com/specialistvlad/shadergrid/internal/ctxlog"
	"github.com/specialistvlad/shadergrid/internal/invoker"
	"github.com/specialistvlad/shadergrid/internal/tablegen"
)

// DefaultDxc is the compiler looked up on PATH when none is given.
const DefaultDxc = "dxc"

// Target is the dxc profile and entry point prefix of a stage.
type Target struct {
	Profile string
	Prefix  string
}

var targets = map[classify.Stage]Target{
	classify.Vertex:     {Profile: "vs_6_6", Prefix: "VS_"},
	classify.Pixel:      {Profile: "ps_6_6", Prefix: "PS_"},
	classify.Compute:    {Profile: "cs_6_6", Prefix: "CS_"},
	classify.RayTracing: {Profile: "lib_6_6", Prefix: "RT_"},
}

// TargetFor returns the target of a stage.
func TargetFor(stage classify.Stage) (Target, bool) {
	t, ok := targets[stage]
	return t, ok
}

var entryRes = map[string]*regexp.Regexp{}

func init() {
	for _, t := range targets {
		entryRes[t.Prefix] = regexp.MustCompile(`\w+[\n\r\s]*(` + t.Prefix + `\w+)[\n\r\s]*\(`)
	}
}

// EntryPoints returns the entry points of a shader. Ray-tracing shaders
// have exactly one, named after the file; other stages declare theirs as
// functions carrying the stage prefix.
func EntryPoints(stage classify.Stage, path, src string) ([]string, error) {
	t, ok := TargetFor(stage)
	if !ok {
		return nil, fmt.Errorf("invalid shader input file %s", path)
	}
	if stage == classify.RayTracing {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return []string{t.Prefix + titleCase(strings.ReplaceAll(stem, "_", " "))}, nil
	}

	var entries []string
	for _, m := range entryRes[t.Prefix].FindAllStringSubmatch(src, -1) {
		entries = append(entries, m[1])
	}
	return entries, nil
}

// titleCase upper-cases the first letter of every word, lower-cases the rest
// and drops spaces. Any non-letter starts a new word.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		switch {
		case r == ' ':
			prevLetter = false
			continue
		case unicode.IsLetter(r):
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		default:
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}

// DxcCommand builds the dxc invocation for one entry point writing its
// header to out.
func DxcCommand(dxc string, stage classify.Stage, entry, src, out string) buildstep.Command {
	t := targets[stage]
	args := []string{"-T", t.Profile}
	if stage != classify.RayTracing {
		args = append(args, "-E", entry)
	}
	args = append(args,
		src,
		"-Zi",
		"-Qembed_debug",
		"-HV", "2021",
		"-Fh", out,
		"-Vn", tablegen.SymbolPrefix+entry,
	)
	return buildstep.Command{
		Executable:  dxc,
		Args:        args,
		Description: fmt.Sprintf("Compiling %s (%s)", entry, filepath.Base(src)),
	}
}

// Options are the arguments of one compilation.
type Options struct {
	Source string
	Output string
	Dxc    string
}

// Compiler runs dxc through an invoker.
type Compiler struct {
	Invoker invoker.Invoker
	// TempDir holds the per-entry headers. Empty means os.TempDir.
	TempDir string
}

// New returns a compiler that spawns dxc as a local process.
func New() *Compiler {
	return &Compiler{Invoker: invoker.NewExec("")}
}

// Compile compiles every entry point of opts.Source and writes their
// headers, concatenated, to opts.Output. Nothing is written when any entry
// point fails.
func (c *Compiler) Compile(ctx context.Context, opts Options) ([]string, error) {
	logger := ctxlog.FromContext(ctx).With("source", opts.Source)

	stage, ok := classify.StageForExt(filepath.Ext(opts.Source))
	if !ok {
		return nil, fmt.Errorf("invalid shader input file %s", opts.Source)
	}
	src, err := os.ReadFile(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to read shader: %w", err)
	}
	entries, err := EntryPoints(stage, opts.Source, string(src))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		logger.Warn("No entry points found.", "prefix", targets[stage].Prefix)
	}

	dxc := opts.Dxc
	if dxc == "" {
		dxc = DefaultDxc
	}

	var combined bytes.Buffer
	for _, entry := range entries {
		header, err := c.compileEntry(ctx, dxc, stage, entry, opts.Source)
		if err != nil {
			return nil, err
		}
		combined.Write(header)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Output), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(opts.Output, combined.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", opts.Output, err)
	}
	logger.Debug("Shader compiled.", "stage", stage, "entry_points", entries, "output", opts.Output)
	return entries, nil
}

func (c *Compiler) compileEntry(ctx context.Context, dxc string, stage classify.Stage, entry, src string) ([]byte, error) {
	tmp, err := os.CreateTemp(c.TempDir, entry+"-*.h")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary header: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	cmd := DxcCommand(dxc, stage, entry, src, tmpPath)
	ctxlog.FromContext(ctx).Debug(cmd.Description, "command", cmd.String())

	res, err := c.Invoker.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, fmt.Errorf("failed to compile %s (%s): exit status %d\n%s",
			entry, src, res.ExitCode, strings.TrimSpace(string(res.Output)))
	}
	header, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read compiled header of %s: %w", entry, err)
	}
	return header, nil
}
