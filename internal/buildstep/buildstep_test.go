package buildstep_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/shadergrid/internal/builderr"
	"github.com/specialistvlad/shadergrid/internal/buildstep"
	"github.com/specialistvlad/shadergrid/internal/fsutil"
	"github.com/specialistvlad/shadergrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileStep(dir string) *buildstep.Step {
	out := filepath.Join(dir, "gen", "a.psh.built.h")
	return &buildstep.Step{
		ID:        "compile:a.psh",
		Kind:      buildstep.Compile,
		Primary:   filepath.Join(dir, "a.psh"),
		Auxiliary: []string{filepath.Join(dir, "common.hlsli")},
		Outputs:   []buildstep.Artifact{{Path: out, Producer: "compile:a.psh"}},
		Command: buildstep.Command{
			Executable: "shadercompile",
			Args:       []string{filepath.Join(dir, "a.psh"), "-o", out},
		},
	}
}

func TestCommand_String(t *testing.T) {
	cmd := buildstep.Command{Executable: "dxc", Args: []string{"-T", "ps_6_6", "My Shaders/a.psh", ""}}

	assert.Equal(t, `dxc -T ps_6_6 "My Shaders/a.psh" ""`, cmd.String())
	assert.Equal(t, []string{"dxc", "-T", "ps_6_6", "My Shaders/a.psh", ""}, cmd.Argv())
}

func TestStep_Inputs(t *testing.T) {
	s := compileStep("/src")

	assert.Equal(t, []string{filepath.Join("/src", "a.psh"), filepath.Join("/src", "common.hlsli")}, s.Inputs())
	assert.Equal(t, filepath.Join("/src", "gen", "a.psh.built.h"), s.Output().Path)
	assert.Equal(t, "compile", s.Kind.String())
	assert.Equal(t, "table", buildstep.Table.String())
}

func TestStep_Check(t *testing.T) {
	clock := testutil.NewClock()
	t0, t1, t2 := clock.Next(), clock.Next(), clock.Next()

	testCases := []struct {
		name       string
		setup      func(t *testing.T, s *buildstep.Step)
		wantStale  bool
		wantReason string
	}{
		{
			name: "output missing",
			setup: func(t *testing.T, s *buildstep.Step) {
				testutil.Touch(t, s.Primary, t0)
				testutil.Touch(t, s.Auxiliary[0], t0)
			},
			wantStale:  true,
			wantReason: buildstep.ReasonOutputMissing,
		},
		{
			name: "primary newer than output",
			setup: func(t *testing.T, s *buildstep.Step) {
				testutil.Touch(t, s.Output().Path, t1)
				testutil.Touch(t, s.Primary, t2)
				testutil.Touch(t, s.Auxiliary[0], t0)
			},
			wantStale:  true,
			wantReason: buildstep.ReasonInputNewer,
		},
		{
			name: "include newer than output",
			setup: func(t *testing.T, s *buildstep.Step) {
				testutil.Touch(t, s.Output().Path, t1)
				testutil.Touch(t, s.Primary, t0)
				testutil.Touch(t, s.Auxiliary[0], t2)
			},
			wantStale:  true,
			wantReason: buildstep.ReasonInputNewer,
		},
		{
			name: "equal timestamps are stale",
			setup: func(t *testing.T, s *buildstep.Step) {
				testutil.Touch(t, s.Output().Path, t1)
				testutil.Touch(t, s.Primary, t1)
				testutil.Touch(t, s.Auxiliary[0], t0)
			},
			wantStale:  true,
			wantReason: buildstep.ReasonInputNewer,
		},
		{
			name: "up to date",
			setup: func(t *testing.T, s *buildstep.Step) {
				testutil.Touch(t, s.Primary, t0)
				testutil.Touch(t, s.Auxiliary[0], t1)
				testutil.Touch(t, s.Output().Path, t2)
			},
			wantStale:  false,
			wantReason: buildstep.ReasonUpToDate,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			s := compileStep(t.TempDir())
			tc.setup(t, s)

			// --- Act ---
			got, err := s.Check(fsutil.OSStater{})

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, tc.wantStale, got.Stale)
			assert.Equal(t, tc.wantReason, got.Reason)
		})
	}
}

func TestStep_Check_OldestOutputDecides(t *testing.T) {
	clock := testutil.NewClock()
	dir := t.TempDir()
	s := &buildstep.Step{
		ID:      "table",
		Kind:    buildstep.Table,
		Primary: filepath.Join(dir, "a.psh"),
		Outputs: []buildstep.Artifact{
			{Path: filepath.Join(dir, "table.h"), Producer: "table"},
			{Path: filepath.Join(dir, "table.cpp"), Producer: "table"},
		},
	}
	old := clock.Next()
	testutil.Touch(t, s.Outputs[1].Path, old)
	testutil.Touch(t, s.Primary, clock.Next())
	testutil.Touch(t, s.Outputs[0].Path, clock.Next())

	got, err := s.Check(fsutil.OSStater{})

	require.NoError(t, err)
	assert.True(t, got.Stale)
	assert.Equal(t, buildstep.ReasonInputNewer, got.Reason)
	assert.Equal(t, s.Primary, got.Path)
}

func TestStep_Check_MissingInputIsAnError(t *testing.T) {
	s := compileStep(t.TempDir())
	testutil.Touch(t, s.Output().Path, time.Now())
	testutil.Touch(t, s.Primary, testutil.BaseTime)

	_, err := s.Check(fsutil.OSStater{})

	require.Error(t, err)
	assert.ErrorIs(t, err, builderr.ErrStalenessCheck)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "compile:a.psh")
}

func TestStep_Check_Fingerprint(t *testing.T) {
	// --- Arrange ---
	clock := testutil.NewClock()
	dir := t.TempDir()
	header := filepath.Join(dir, "table.h")
	s := &buildstep.Step{
		ID:          "table",
		Kind:        buildstep.Table,
		Primary:     filepath.Join(dir, "a.psh"),
		Outputs:     []buildstep.Artifact{{Path: header, Producer: "table"}},
		Fingerprint: "abc",
		StampPath:   header + ".stamp",
	}
	testutil.Touch(t, s.Primary, clock.Next())
	testutil.Touch(t, header, clock.Next())

	// --- Act & Assert: no stamp yet ---
	got, err := s.Check(fsutil.OSStater{})
	require.NoError(t, err)
	assert.True(t, got.Stale)
	assert.Equal(t, buildstep.ReasonManifestChanged, got.Reason)

	// --- Act & Assert: stamp matches ---
	require.NoError(t, s.WriteStamp())
	got, err = s.Check(fsutil.OSStater{})
	require.NoError(t, err)
	assert.False(t, got.Stale)

	recorded, ok, err := buildstep.ReadStamp(s.StampPath)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", recorded)

	// --- Act & Assert: fingerprint changed ---
	s.Fingerprint = "def"
	got, err = s.Check(fsutil.OSStater{})
	require.NoError(t, err)
	assert.True(t, got.Stale)
	assert.Equal(t, buildstep.ReasonManifestChanged, got.Reason)
}

func TestStep_WriteStampWithoutFingerprint(t *testing.T) {
	s := compileStep(t.TempDir())
	s.StampPath = filepath.Join(t.TempDir(), "x.stamp")

	require.NoError(t, s.WriteStamp())

	_, ok, err := buildstep.ReadStamp(s.StampPath)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStep_MissingOutputs(t *testing.T) {
	dir := t.TempDir()
	s := &buildstep.Step{
		ID: "table",
		Outputs: []buildstep.Artifact{
			{Path: filepath.Join(dir, "table.h")},
			{Path: filepath.Join(dir, "table.cpp")},
		},
	}
	testutil.Touch(t, s.Outputs[0].Path, testutil.BaseTime)

	missing, err := s.MissingOutputs(fsutil.OSStater{})

	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "table.cpp")}, missing)
}
