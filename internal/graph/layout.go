package graph

import (
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/shadergrid/internal/builderr"
)

// ArtifactSuffix is appended to a shader's base name to form its artifact name.
const ArtifactSuffix = ".built.h"

// Tool is an external program and the arguments wrapped around the
// arguments the graph supplies.
type Tool struct {
	Executable string
	// Args go before the graph-supplied arguments.
	Args []string
	// ToolArgs go after them. Only the compiler uses them.
	ToolArgs []string
}

// StalenessMode selects how the table step detects changes to the shader set.
type StalenessMode string

const (
	// ModeManifest adds a digest of the artifact list to the table step, so
	// adding or removing a shader regenerates the table.
	ModeManifest StalenessMode = "manifest"
	// ModeRepresentative relies on timestamps only.
	ModeRepresentative StalenessMode = "representative"
)

// ParseStalenessMode accepts "manifest", "representative" or "" (manifest).
func ParseStalenessMode(s string) (StalenessMode, error) {
	switch StalenessMode(s) {
	case "", ModeManifest:
		return ModeManifest, nil
	case ModeRepresentative:
		return ModeRepresentative, nil
	}
	return "", fmt.Errorf("invalid table staleness mode %q: must be one of [manifest, representative]", s)
}

// Layout fixes where generated files go and which tools produce them.
type Layout struct {
	ArtifactDir string
	TableHeader string
	TableSource string
	Compiler    Tool
	Generator   Tool
	Staleness   StalenessMode
}

// ArtifactPath returns the artifact path for a shader source. Only the base
// name of shader participates.
func (l Layout) ArtifactPath(shader string) string {
	return filepath.Join(l.ArtifactDir, filepath.Base(shader)+ArtifactSuffix)
}

// StampPath returns where the table fingerprint is recorded.
func (l Layout) StampPath() string {
	return l.TableHeader + ".stamp"
}

func (l Layout) validate() error {
	switch {
	case l.ArtifactDir == "":
		return builderr.Configf("artifact directory is not set")
	case l.TableHeader == "" || l.TableSource == "":
		return builderr.Configf("table header and source paths must both be set")
	case filepath.Clean(l.TableHeader) == filepath.Clean(l.TableSource):
		return builderr.Configf("table header and source must differ, both are %q", l.TableHeader)
	case l.Compiler.Executable == "":
		return builderr.Configf("compiler executable is not set")
	case l.Generator.Executable == "":
		return builderr.Configf("table generator executable is not set")
	}
	if _, err := ParseStalenessMode(string(l.Staleness)); err != nil {
		return builderr.Configf("%v", err)
	}
	return nil
}
