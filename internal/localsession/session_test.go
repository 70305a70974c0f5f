package localsession

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/shadergrid/internal/builderr"
	"github.com/specialistvlad/shadergrid/internal/graph"
	"github.com/specialistvlad/shadergrid/internal/node"
	"github.com/specialistvlad/shadergrid/internal/project"
	"github.com/specialistvlad/shadergrid/internal/session"
	"github.com/specialistvlad/shadergrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingsFor(root string) *project.Settings {
	gen := filepath.Join(root, "Generated")
	return &project.Settings{
		Name:            "engine",
		SourceDir:       root,
		GeneratedDir:    gen,
		ArtifactDir:     filepath.Join(gen, "Shaders"),
		TableHeader:     filepath.Join(gen, "shader_table.h"),
		TableSource:     filepath.Join(gen, "shader_table.cpp"),
		IncludeSuffixes: []string{".hlsli", ".fxh"},
		Exclude:         []string{"legacy"},
		TableStaleness:  "manifest",
		Compiler:        project.Tool{Executable: "shadercompile"},
		Generator:       project.Tool{Executable: "shadertable"},
	}
}

func TestNewSession_WiresAndExecutes(t *testing.T) {
	// --- Arrange ---
	ctx, _ := testutil.LoggerContext(t)
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"lit.psh":         "",
		"lit.vsh":         "",
		"common.fxh":      "",
		"legacy/old.psh":  "",
		"docs/readme.txt": "",
	})
	clock := testutil.NewClock()
	var seen session.Session
	f := &SessionFactory{
		Invoker:   testutil.NewFakeInvoker(clock),
		Workers:   2,
		OnSession: func(s session.Session) { seen = s },
	}

	// --- Act ---
	s, err := f.NewSession(ctx, settingsFor(root))
	require.NoError(t, err)
	defer s.Close(ctx)
	exec, err := s.GetExecutor()
	require.NoError(t, err)
	report, err := exec.Execute(ctx)

	// --- Assert ---
	require.NoError(t, err)
	assert.Same(t, s, seen)
	assert.Equal(t, 3, s.Graph().Len(), "legacy is excluded")
	a, ok := s.Graph().Step("compile:lit.psh")
	require.True(t, ok)
	assert.Equal(t, []string{filepath.Join(root, "common.fxh")}, a.Auxiliary)
	assert.Len(t, report.Executed, 3)

	status, err := s.Store().GetStatus(ctx, graph.TableID)
	require.NoError(t, err)
	assert.Equal(t, node.StatusCompleted, status)
}

func TestNewSession_SkipsGeneratedDirInsideSources(t *testing.T) {
	ctx := context.Background()
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"a.psh": "",
		// A stray shader in the generated tree must not be discovered.
		"Generated/copy.psh": "",
	})

	s, err := (&SessionFactory{Invoker: testutil.NewFakeInvoker(testutil.NewClock())}).NewSession(ctx, settingsFor(root))

	require.NoError(t, err)
	assert.Equal(t, 2, s.Graph().Len())
}

func TestNewSession_SkipsArtifactDirInsideSources(t *testing.T) {
	ctx := context.Background()
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"a.psh":               "",
		"common.h":            "",
		"Built/a.psh.built.h": "",
	})
	settings := settingsFor(root)
	settings.GeneratedDir = filepath.Join(filepath.Dir(root), "Generated")
	settings.ArtifactDir = filepath.Join(root, "Built")
	settings.IncludeSuffixes = []string{".h"}

	s, err := (&SessionFactory{Invoker: testutil.NewFakeInvoker(testutil.NewClock())}).NewSession(ctx, settings)

	require.NoError(t, err)
	a, ok := s.Graph().Step("compile:a.psh")
	require.True(t, ok)
	assert.Equal(t, []string{filepath.Join(root, "common.h")}, a.Auxiliary)
}

func TestNewSession_ConfigurationErrors(t *testing.T) {
	ctx := context.Background()

	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"only.hlsli": "",
	})
	_, err := (&SessionFactory{}).NewSession(ctx, settingsFor(root))
	assert.ErrorIs(t, err, builderr.ErrConfiguration)

	root = testutil.WriteTree(t, t.TempDir(), map[string]string{
		"a/x.psh": "",
		"b/x.psh": "",
	})
	_, err = (&SessionFactory{}).NewSession(ctx, settingsFor(root))
	assert.ErrorIs(t, err, builderr.ErrConfiguration)
	assert.ErrorContains(t, err, "collision")

	_, err = (&SessionFactory{}).NewSession(ctx, settingsFor(filepath.Join(root, "missing")))
	assert.ErrorContains(t, err, "failed to discover")
}

func TestLayoutFor(t *testing.T) {
	s := settingsFor("/src")
	s.Compiler.ToolArgs = []string{"--path_to_dxc", "dxc"}
	s.TableStaleness = "representative"

	l, err := LayoutFor(s)

	require.NoError(t, err)
	assert.Equal(t, graph.ModeRepresentative, l.Staleness)
	assert.Equal(t, []string{"--path_to_dxc", "dxc"}, l.Compiler.ToolArgs)
	assert.Equal(t, s.TableHeader, l.TableHeader)

	s.TableStaleness = "bogus"
	_, err = LayoutFor(s)
	assert.Error(t, err)
}
