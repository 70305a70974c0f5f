// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines project settings, the partial layers they are merged
// from, and their validation.
package project

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/specialistvlad/shadergrid/internal/builderr"
)

// Built-in values applied after merging.
const (
	DefaultGeneratedDir   = "Generated"
	DefaultArtifactSubdir = "Shaders"
	DefaultTableName      = "shader_table"
	DefaultTableStaleness = "manifest"
)

// DefaultIncludeSuffixes is used when no layer sets include_suffixes.
var DefaultIncludeSuffixes = []string{".hlsli"}

// Tool is an external program in its resolved form.
type Tool struct {
	Executable string
	Args       []string
	ToolArgs   []string
}

// Settings is the fully resolved configuration of one project.
type Settings struct {
	Name            string
	SourceDir       string
	GeneratedDir    string
	ArtifactDir     string
	TableHeader     string
	TableSource     string
	IncludeSuffixes []string
	Exclude         []string
	TableStaleness  string
	Compiler        Tool
	Generator       Tool
}

// Validate checks that every required field is set.
func (s *Settings) Validate() error {
	var missing []string
	if s.SourceDir == "" {
		missing = append(missing, "source_dir")
	}
	if s.Compiler.Executable == "" {
		missing = append(missing, "compiler.executable")
	}
	if s.Generator.Executable == "" {
		missing = append(missing, "generator.executable")
	}
	if len(missing) > 0 {
		return builderr.Configf("project %q: missing required settings: %s", s.Name, strings.Join(missing, ", "))
	}
	switch s.TableStaleness {
	case "manifest", "representative":
	default:
		return builderr.Configf("project %q: table_staleness must be one of [manifest, representative], got %q", s.Name, s.TableStaleness)
	}
	for _, suffix := range s.IncludeSuffixes {
		if !strings.HasPrefix(suffix, ".") {
			return builderr.Configf("project %q: include suffix %q must start with a dot", s.Name, suffix)
		}
	}
	return nil
}

// ToolLayer is the partial form of Tool. Nil means unset.
type ToolLayer struct {
	Executable *string  `hcl:"executable,optional"`
	Args       []string `hcl:"args,optional"`
	ToolArgs   []string `hcl:"tool_args,optional"`
}

// Layer is one partial set of settings as written in a defaults or project
// block. Nil pointers and nil slices mean unset.
type Layer struct {
	SourceDir       *string    `hcl:"source_dir,optional"`
	GeneratedDir    *string    `hcl:"generated_dir,optional"`
	ArtifactDir     *string    `hcl:"artifact_dir,optional"`
	TableName       *string    `hcl:"table_name,optional"`
	IncludeSuffixes []string   `hcl:"include_suffixes,optional"`
	Exclude         []string   `hcl:"exclude,optional"`
	TableStaleness  *string    `hcl:"table_staleness,optional"`
	Compiler        *ToolLayer `hcl:"compiler,block"`
	Generator       *ToolLayer `hcl:"generator,block"`
}

// Merge returns defaults overlaid with override. Fields set in override
// win; lists are replaced, not appended.
func Merge(defaults, override Layer) Layer {
	out := defaults
	if override.SourceDir != nil {
		out.SourceDir = override.SourceDir
	}
	if override.GeneratedDir != nil {
		out.GeneratedDir = override.GeneratedDir
	}
	if override.ArtifactDir != nil {
		out.ArtifactDir = override.ArtifactDir
	}
	if override.TableName != nil {
		out.TableName = override.TableName
	}
	if override.IncludeSuffixes != nil {
		out.IncludeSuffixes = override.IncludeSuffixes
	}
	if override.Exclude != nil {
		out.Exclude = override.Exclude
	}
	if override.TableStaleness != nil {
		out.TableStaleness = override.TableStaleness
	}
	out.Compiler = mergeTool(defaults.Compiler, override.Compiler)
	out.Generator = mergeTool(defaults.Generator, override.Generator)
	return out
}

func mergeTool(defaults, override *ToolLayer) *ToolLayer {
	if override == nil {
		return defaults
	}
	if defaults == nil {
		return override
	}
	out := *defaults
	if override.Executable != nil {
		out.Executable = override.Executable
	}
	if override.Args != nil {
		out.Args = override.Args
	}
	if override.ToolArgs != nil {
		out.ToolArgs = override.ToolArgs
	}
	return &out
}

// Resolve applies the built-in defaults, makes paths absolute against
// baseDir and validates the result.
func (l Layer) Resolve(name, baseDir string) (*Settings, error) {
	s := &Settings{
		Name:            name,
		SourceDir:       resolvePath(baseDir, deref(l.SourceDir, "")),
		GeneratedDir:    resolvePath(baseDir, deref(l.GeneratedDir, DefaultGeneratedDir)),
		IncludeSuffixes: slices.Clone(l.IncludeSuffixes),
		Exclude:         slices.Clone(l.Exclude),
		TableStaleness:  deref(l.TableStaleness, DefaultTableStaleness),
		Compiler:        resolveTool(baseDir, l.Compiler),
		Generator:       resolveTool(baseDir, l.Generator),
	}
	if s.IncludeSuffixes == nil {
		s.IncludeSuffixes = slices.Clone(DefaultIncludeSuffixes)
	}
	s.ArtifactDir = filepath.Join(s.GeneratedDir, DefaultArtifactSubdir)
	if l.ArtifactDir != nil {
		s.ArtifactDir = resolvePath(baseDir, *l.ArtifactDir)
	}
	table := deref(l.TableName, DefaultTableName)
	s.TableHeader = filepath.Join(s.GeneratedDir, table+".h")
	s.TableSource = filepath.Join(s.GeneratedDir, table+".cpp")

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// SkipDirs returns the directories discovery must not descend into,
// relative to the source directory: every exclude entry plus the generated
// and artifact directories when they live inside the sources.
func (s *Settings) SkipDirs() []string {
	skip := slices.Clone(s.Exclude)
	gen, genInside := subdir(s.SourceDir, s.GeneratedDir)
	if genInside {
		skip = append(skip, gen)
	}
	if art, ok := subdir(s.SourceDir, s.ArtifactDir); ok {
		if _, nested := subdir(s.GeneratedDir, s.ArtifactDir); !genInside || !nested {
			skip = append(skip, art)
		}
	}
	return skip
}

// subdir reports target relative to base when target lies strictly below it.
func subdir(base, target string) (string, bool) {
	if base == "" || target == "" {
		return "", false
	}
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func (s *Settings) String() string {
	return fmt.Sprintf("%s (%s -> %s)", s.Name, s.SourceDir, s.GeneratedDir)
}

func resolveTool(baseDir string, l *ToolLayer) Tool {
	if l == nil {
		return Tool{}
	}
	exe := deref(l.Executable, "")
	// Bare program names are looked up on PATH; anything with a separator is a path.
	if strings.ContainsRune(exe, '/') || strings.ContainsRune(exe, filepath.Separator) {
		exe = resolvePath(baseDir, exe)
	}
	return Tool{
		Executable: exe,
		Args:       slices.Clone(l.Args),
		ToolArgs:   slices.Clone(l.ToolArgs),
	}
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

func deref(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}
