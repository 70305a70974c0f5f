package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/shadergrid/internal/buildstep"
	"github.com/specialistvlad/shadergrid/internal/invoker"
	"github.com/specialistvlad/shadergrid/internal/shadercompile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingDxc reports a compile error for every invocation.
type failingDxc struct{ calls int }

func (f *failingDxc) Run(ctx context.Context, cmd buildstep.Command) (*invoker.Result, error) {
	f.calls++
	return &invoker.Result{ExitCode: 1, Output: []byte("error X3004: undeclared identifier")}, nil
}

func TestRun_CompileError(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	src := filepath.Join(dir, "a.psh")
	require.NoError(t, os.WriteFile(src, []byte("float4 PS_A() : SV_Target { return x; }"), 0600))
	dxc := &failingDxc{}

	// --- Act ---
	err := run(&bytes.Buffer{}, []string{src, "-o", filepath.Join(dir, "a.h")}, &shadercompile.Compiler{Invoker: dxc, TempDir: dir})

	// --- Assert ---
	require.Error(t, err)
	assert.Equal(t, 1, dxc.calls)
	assert.Contains(t, err.Error(), "X3004")
	assert.NoFileExists(t, filepath.Join(dir, "a.h"))
}

func TestRun_UsageError(t *testing.T) {
	err := run(&bytes.Buffer{}, []string{"a.psh"}, shadercompile.New())

	require.ErrorIs(t, err, shadercompile.ErrUsage)
}
