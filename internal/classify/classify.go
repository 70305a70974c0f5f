// Package classify partitions discovered source paths into shader sources,
// shared shader includes and everything else.
//
// Matching is case-sensitive and uses the file's final extension only, so
// "lit.psh" is a pixel shader while "lit.PSH" and "lit.psh.bak" are not.
// Classification never touches the filesystem.
package classify

import (
	"fmt"
	"path/filepath"
	"slices"
)

// Kind is the category a classified file falls into.
type Kind int

const (
	// Other files are not part of the shader pipeline.
	Other Kind = iota
	// Shader files are compiled one by one into artifacts.
	Shader
	// Include files are shared headers every shader may pull in.
	Include
)

func (k Kind) String() string {
	switch k {
	case Shader:
		return "shader"
	case Include:
		return "include"
	default:
		return "other"
	}
}

// Stage is the pipeline stage a shader source targets.
type Stage int

const (
	NoStage Stage = iota
	Vertex
	Pixel
	Compute
	RayTracing
)

var stageNames = map[Stage]string{
	NoStage:    "none",
	Vertex:     "vertex",
	Pixel:      "pixel",
	Compute:    "compute",
	RayTracing: "raytracing",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// StageForExt returns the stage for a shader extension in the default rule set.
func StageForExt(ext string) (Stage, bool) {
	stage, ok := defaultShaderExts[ext]
	return stage, ok
}

var defaultShaderExts = map[string]Stage{
	".vsh":  Vertex,
	".psh":  Pixel,
	".csh":  Compute,
	".rtsh": RayTracing,
}

// SourceFile is a discovered path together with its derived kind.
type SourceFile struct {
	Path  string
	Kind  Kind
	Stage Stage
}

// Name returns the file's base name.
func (f SourceFile) Name() string {
	return filepath.Base(f.Path)
}

// Rules is the closed set of suffixes recognized by Classify.
type Rules struct {
	shaders  map[string]Stage
	includes []string
}

// DefaultRules recognizes .vsh, .psh, .csh and .rtsh shaders and .hlsli includes.
func DefaultRules() Rules {
	return Rules{
		shaders:  defaultShaderExts,
		includes: []string{".hlsli"},
	}
}

// WithIncludeSuffixes returns a copy of r recognizing exactly the given
// include suffixes. An empty list keeps the current suffixes.
func (r Rules) WithIncludeSuffixes(suffixes ...string) Rules {
	if len(suffixes) == 0 {
		return r
	}
	r.includes = slices.Clone(suffixes)
	return r
}

// IncludeSuffixes returns the recognized include suffixes.
func (r Rules) IncludeSuffixes() []string {
	return slices.Clone(r.includes)
}

// Match classifies a single path.
func (r Rules) Match(path string) SourceFile {
	ext := filepath.Ext(path)
	if stage, ok := r.shaders[ext]; ok {
		return SourceFile{Path: path, Kind: Shader, Stage: stage}
	}
	if ext != "" && slices.Contains(r.includes, ext) {
		return SourceFile{Path: path, Kind: Include}
	}
	return SourceFile{Path: path, Kind: Other}
}

// Result is the partition produced by Classify. Each slice keeps the order
// in which its members appeared in the input.
type Result struct {
	Shaders  []SourceFile
	Includes []SourceFile
	Other    []SourceFile
}

// Classify partitions paths according to rules.
func Classify(paths []string, rules Rules) Result {
	var res Result
	for _, p := range paths {
		f := rules.Match(p)
		switch f.Kind {
		case Shader:
			res.Shaders = append(res.Shaders, f)
		case Include:
			res.Includes = append(res.Includes, f)
		default:
			res.Other = append(res.Other, f)
		}
	}
	return res
}

// Paths returns the paths of files in order.
func Paths(files []SourceFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
