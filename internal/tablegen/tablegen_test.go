package tablegen

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/shadergrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	vsHeader = "const unsigned char __kShaderSource__VS_Basic[] = { 0x44 };\n"
	psHeader = "const unsigned char __kShaderSource__PS_Basic[] = { 0x45 };\n" +
		"const unsigned char __kShaderSource__PS_Tonemap[] = { 0x46 };\n"
)

func TestSymbols(t *testing.T) {
	assert.Equal(t, []string{"VS_Basic", "PS_Basic", "PS_Tonemap"}, Symbols(vsHeader+psHeader))
	assert.Empty(t, Symbols("// nothing here\n"))
}

func TestRender(t *testing.T) {
	table := Render("shader_table.h", vsHeader+psHeader)

	wantHeader := `#pragma once
enum EngineShaderIndex
{
  kVS_Basic,
  kPS_Basic,
  kPS_Tonemap,
  kEngineShaderCount,
};
extern const unsigned char* kEngineShaderBinSrcs[];
extern const size_t kEngineShaderBinSizes[];`
	assert.Equal(t, wantHeader, table.Header)

	wantSource := "#include \"shader_table.h\"\n" + vsHeader + psHeader +
		"\nconst unsigned char* kEngineShaderBinSrcs[] = \n{\n" +
		"  __kShaderSource__VS_Basic,\n" +
		"  __kShaderSource__PS_Basic,\n" +
		"  __kShaderSource__PS_Tonemap,\n" +
		"};\nconst size_t kEngineShaderBinSizes[] = \n{\n" +
		"  sizeof(__kShaderSource__VS_Basic),\n" +
		"  sizeof(__kShaderSource__PS_Basic),\n" +
		"  sizeof(__kShaderSource__PS_Tonemap),\n" +
		"};\n"
	assert.Equal(t, wantSource, table.Source)
}

func TestRender_NoShaders(t *testing.T) {
	table := Render("t.h", "")

	assert.Contains(t, table.Header, "{\n  kEngineShaderCount,\n};")
	assert.Contains(t, table.Source, "kEngineShaderBinSrcs[] = \n{\n};")
}

func TestGenerate(t *testing.T) {
	ctx, _ := testutil.LoggerContext(t)
	dir := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"Shaders/a.vsh.built.h": vsHeader,
		"Shaders/b.psh.built.h": psHeader,
	})
	opts := Options{
		OutputHeader: filepath.Join(dir, "out", "shader_table.h"),
		OutputSource: filepath.Join(dir, "out", "shader_table.cpp"),
		Inputs: []string{
			filepath.Join(dir, "Shaders", "a.vsh.built.h"),
			filepath.Join(dir, "Shaders", "b.psh.built.h"),
		},
	}

	table, err := Generate(ctx, opts)

	require.NoError(t, err)
	assert.Equal(t, []string{"VS_Basic", "PS_Basic", "PS_Tonemap"}, table.Symbols)

	header, err := os.ReadFile(opts.OutputHeader)
	require.NoError(t, err)
	assert.Equal(t, table.Header, string(header))

	source, err := os.ReadFile(opts.OutputSource)
	require.NoError(t, err)
	assert.Contains(t, string(source), `#include "shader_table.h"`)
}

func TestGenerate_MissingInput(t *testing.T) {
	ctx, _ := testutil.LoggerContext(t)
	dir := t.TempDir()

	_, err := Generate(ctx, Options{
		OutputHeader: filepath.Join(dir, "t.h"),
		OutputSource: filepath.Join(dir, "t.cpp"),
		Inputs:       []string{filepath.Join(dir, "missing.built.h")},
	})

	require.ErrorIs(t, err, os.ErrNotExist)
	assert.NoFileExists(t, filepath.Join(dir, "t.h"))
}

func TestParseArgs(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		want     Options
		wantExit bool
		wantErr  bool
	}{
		{
			name: "full command line",
			args: []string{"--output_header", "t.h", "--output_source", "t.cpp", "--inputs", "a.h", "b.h"},
			want: Options{OutputHeader: "t.h", OutputSource: "t.cpp", Inputs: []string{"a.h", "b.h"}},
		},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "missing header", args: []string{"--output_source", "t.cpp", "--inputs", "a.h"}, wantErr: true},
		{name: "missing source", args: []string{"--output_header", "t.h", "--inputs", "a.h"}, wantErr: true},
		{name: "missing inputs flag", args: []string{"--output_header", "t.h", "--output_source", "t.cpp", "a.h"}, wantErr: true},
		{name: "no inputs", args: []string{"--output_header", "t.h", "--output_source", "t.cpp", "--inputs"}, wantErr: true},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			opts, exit, err := ParseArgs(tc.args, &out)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrUsage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, exit)
			if !tc.wantExit {
				assert.Equal(t, tc.want, opts)
			}
		})
	}
}
