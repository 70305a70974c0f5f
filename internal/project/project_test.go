// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/shadergrid/internal/builderr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullConfig = `
defaults {
  generated_dir    = "Generated"
  include_suffixes = [".hlsli", ".fxh"]
  compiler {
    executable = "python"
    args       = [path_join(config_dir, "tools", "compile_shader.py")]
    tool_args  = ["--path_to_dxc", coalesce(env("SHADERGRID_TEST_DXC"), "dxc")]
  }
  generator {
    executable = "./bin/shadertable"
  }
}

project "engine" {
  source_dir = "Engine/Shaders"
}

project "editor" {
  source_dir      = "Editor/Shaders"
  generated_dir   = "Editor/Generated"
  table_name      = "editor_shader_table"
  table_staleness = "representative"
  exclude         = ["legacy"]
  compiler {
    tool_args = [format("--path_to_dxc=%s", upper("dxc"))]
  }
}

notify "socketio" {
  url      = "http://localhost:3000"
  event    = "reload"
  timeout  = "2s"
  metadata = {
    branch = lower("MAIN")
    host   = join("-", ["build", "01"])
  }
}

publish "s3" {
  endpoint    = "localhost:9000"
  bucket      = "shaders"
  prefix      = "nightly"
  use_ssl     = false
  parallelism = 8
}
`

func parse(t *testing.T, src string) (*Config, error) {
	t.Helper()
	return Parse(context.Background(), []byte(src), filepath.Join("/work", "shadergrid.hcl"))
}

func TestParse_FullConfig(t *testing.T) {
	// --- Arrange ---
	t.Setenv("SHADERGRID_TEST_DXC", "/opt/dxc/bin/dxc")

	// --- Act ---
	cfg, err := parse(t, fullConfig)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, cfg.Projects, 2)

	engine, ok := cfg.Project("engine")
	require.True(t, ok)
	want := &Settings{
		Name:            "engine",
		SourceDir:       filepath.Join("/work", "Engine", "Shaders"),
		GeneratedDir:    filepath.Join("/work", "Generated"),
		ArtifactDir:     filepath.Join("/work", "Generated", "Shaders"),
		TableHeader:     filepath.Join("/work", "Generated", "shader_table.h"),
		TableSource:     filepath.Join("/work", "Generated", "shader_table.cpp"),
		IncludeSuffixes: []string{".hlsli", ".fxh"},
		TableStaleness:  "manifest",
		Compiler: Tool{
			Executable: "python",
			Args:       []string{filepath.Join("/work", "tools", "compile_shader.py")},
			ToolArgs:   []string{"--path_to_dxc", "/opt/dxc/bin/dxc"},
		},
		Generator: Tool{Executable: filepath.Join("/work", "bin", "shadertable")},
	}
	if diff := cmp.Diff(want, engine); diff != "" {
		t.Errorf("engine settings mismatch (-want +got):\n%s", diff)
	}

	editor, ok := cfg.Project("editor")
	require.True(t, ok)
	assert.Equal(t, filepath.Join("/work", "Editor", "Generated", "editor_shader_table.h"), editor.TableHeader)
	assert.Equal(t, "representative", editor.TableStaleness)
	assert.Equal(t, []string{"legacy"}, editor.Exclude)
	assert.Equal(t, "python", editor.Compiler.Executable, "executable comes from defaults")
	assert.Equal(t, []string{"--path_to_dxc=DXC"}, editor.Compiler.ToolArgs, "tool_args are replaced")

	require.NotNil(t, cfg.Notify)
	assert.Equal(t, &NotifyConfig{
		URL:       "http://localhost:3000",
		Path:      DefaultNotifyPath,
		Namespace: DefaultNotifyNamespace,
		Event:     "reload",
		Timeout:   2 * time.Second,
		Metadata:  map[string]string{"branch": "main", "host": "build-01"},
	}, cfg.Notify)

	require.NotNil(t, cfg.Publish)
	assert.Equal(t, "shaders", cfg.Publish.Bucket)
	assert.Equal(t, "nightly", cfg.Publish.Prefix)
	assert.Equal(t, 8, cfg.Publish.Parallelism)
	assert.False(t, cfg.Publish.UseSSL)
}

func TestParse_MinimalConfigUsesBuiltInDefaults(t *testing.T) {
	cfg, err := parse(t, `
project "p" {
  source_dir = "/abs/shaders"
  compiler { executable = "shadercompile" }
  generator { executable = "shadertable" }
}
`)

	require.NoError(t, err)
	p := cfg.Projects[0]
	assert.Equal(t, "/abs/shaders", p.SourceDir)
	assert.Equal(t, DefaultIncludeSuffixes, p.IncludeSuffixes)
	assert.Equal(t, DefaultTableStaleness, p.TableStaleness)
	assert.Nil(t, cfg.Notify)
	assert.Nil(t, cfg.Publish)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{
			name:    "syntax error",
			src:     `project "p" {`,
			wantMsg: "failed to parse",
		},
		{
			name:    "no projects",
			src:     `defaults {}`,
			wantMsg: "no project blocks",
		},
		{
			name:    "missing required settings",
			src:     `project "p" {}`,
			wantMsg: "source_dir, compiler.executable, generator.executable",
		},
		{
			name: "duplicate project",
			src: `
project "p" {
  source_dir = "s"
  compiler { executable = "c" }
  generator { executable = "g" }
}
project "p" {}`,
			wantMsg: "defined twice",
		},
		{
			name:    "unknown attribute",
			src:     `project "p" { shader_dir = "x" }`,
			wantMsg: "failed to decode project",
		},
		{
			name: "bad staleness mode",
			src: `project "p" {
  source_dir      = "s"
  table_staleness = "hash"
  compiler { executable = "c" }
  generator { executable = "g" }
}`,
			wantMsg: "table_staleness",
		},
		{
			name: "include suffix without dot",
			src: `project "p" {
  source_dir       = "s"
  include_suffixes = ["hlsli"]
  compiler { executable = "c" }
  generator { executable = "g" }
}`,
			wantMsg: "must start with a dot",
		},
		{
			name: "unsupported notify kind",
			src: `project "p" {
  source_dir = "s"
  compiler { executable = "c" }
  generator { executable = "g" }
}
notify "tcp" { url = "localhost:1234" }`,
			wantMsg: "unsupported notify kind",
		},
		{
			name: "bad notify timeout",
			src: `project "p" {
  source_dir = "s"
  compiler { executable = "c" }
  generator { executable = "g" }
}
notify "socketio" {
  url     = "http://localhost:3000"
  timeout = "soon"
}`,
			wantMsg: "invalid notify timeout",
		},
		{
			name: "bad publish parallelism",
			src: `project "p" {
  source_dir = "s"
  compiler { executable = "c" }
  generator { executable = "g" }
}
publish "s3" {
  endpoint    = "localhost:9000"
  bucket      = "b"
  parallelism = 0
}`,
			wantMsg: "parallelism",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := parse(t, tc.src)

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, builderr.ErrConfiguration)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestMerge(t *testing.T) {
	str := func(s string) *string { return &s }
	defaults := Layer{
		GeneratedDir: str("Generated"),
		Exclude:      []string{"a", "b"},
		Compiler:     &ToolLayer{Executable: str("python"), Args: []string{"compile.py"}},
	}
	override := Layer{
		SourceDir: str("src"),
		Exclude:   []string{},
		Compiler:  &ToolLayer{ToolArgs: []string{"-O3"}},
		Generator: &ToolLayer{Executable: str("gen")},
	}

	got := Merge(defaults, override)

	assert.Equal(t, "Generated", *got.GeneratedDir)
	assert.Equal(t, "src", *got.SourceDir)
	assert.Empty(t, got.Exclude, "an explicit empty list clears the default")
	assert.Equal(t, "python", *got.Compiler.Executable)
	assert.Equal(t, []string{"compile.py"}, got.Compiler.Args)
	assert.Equal(t, []string{"-O3"}, got.Compiler.ToolArgs)
	assert.Equal(t, "gen", *got.Generator.Executable)
	assert.Nil(t, defaults.Compiler.ToolArgs, "defaults must not be modified")
}

func TestSettings_SkipDirs(t *testing.T) {
	s := &Settings{
		SourceDir:    filepath.Join("/w", "Shaders"),
		GeneratedDir: filepath.Join("/w", "Shaders", "Generated"),
		Exclude:      []string{"legacy"},
	}
	assert.Equal(t, []string{"legacy", "Generated"}, s.SkipDirs())

	s.GeneratedDir = filepath.Join("/w", "Generated")
	assert.Equal(t, []string{"legacy"}, s.SkipDirs())
}

func TestSettings_SkipDirs_ArtifactDir(t *testing.T) {
	src := filepath.Join("/w", "Shaders")
	testCases := []struct {
		name        string
		generated   string
		artifactDir string
		want        []string
	}{
		{
			name:        "artifacts under generated dir inside sources",
			generated:   filepath.Join(src, "Generated"),
			artifactDir: filepath.Join(src, "Generated", "Shaders"),
			want:        []string{"Generated"},
		},
		{
			name:        "artifacts inside sources, generated dir outside",
			generated:   filepath.Join("/w", "Generated"),
			artifactDir: filepath.Join(src, "Built"),
			want:        []string{"Built"},
		},
		{
			name:        "artifacts beside generated dir inside sources",
			generated:   filepath.Join(src, "Generated"),
			artifactDir: filepath.Join(src, "Out", "Bin"),
			want:        []string{"Generated", filepath.Join("Out", "Bin")},
		},
		{
			name:        "directory named with leading dots is inside",
			generated:   filepath.Join(src, "..gen"),
			artifactDir: filepath.Join("/w", "Artifacts"),
			want:        []string{"..gen"},
		},
		{
			name:        "sibling of the sources is outside",
			generated:   filepath.Join("/w", "Generated"),
			artifactDir: filepath.Join("/w", "Generated", "Shaders"),
			want:        nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Settings{SourceDir: src, GeneratedDir: tc.generated, ArtifactDir: tc.artifactDir}
			assert.Equal(t, tc.want, s.SkipDirs())
		})
	}
}

func TestLoad_FromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shadergrid.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
project "p" {
  source_dir = "shaders"
  compiler { executable = "c" }
  generator { executable = "g" }
}`), 0644))

	cfg, err := Load(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, filepath.Join(dir, "shaders"), cfg.Projects[0].SourceDir)

	_, err = Load(context.Background(), filepath.Join(dir, "missing.hcl"))
	assert.ErrorIs(t, err, builderr.ErrConfiguration)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
