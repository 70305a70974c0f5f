// Package tablegen combines compiled shader headers into one shader table:
// a header declaring an index enum and the binary arrays, and a source file
// that inlines every compiled header and defines the arrays.
package tablegen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/specialistvlad/shadergrid/internal/ctxlog"
)

// SymbolPrefix prefixes every compiled shader byte array.
const SymbolPrefix = "__kShaderSource__"

var symbolRe = regexp.MustCompile(regexp.QuoteMeta(SymbolPrefix) + `(\w+)`)

// Symbols returns the shader names declared in src, in order of appearance.
func Symbols(src string) []string {
	var names []string
	for _, m := range symbolRe.FindAllStringSubmatch(src, -1) {
		names = append(names, m[1])
	}
	return names
}

// Table is a rendered shader table.
type Table struct {
	Header  string
	Source  string
	Symbols []string
}

// Render builds the table for the concatenated inputs. headerName is the
// file name the source includes.
func Render(headerName, inputs string) Table {
	names := Symbols(inputs)

	var enums, srcs, sizes strings.Builder
	for _, n := range names {
		fmt.Fprintf(&enums, "  k%s,\n", n)
		fmt.Fprintf(&srcs, "  %s%s,\n", SymbolPrefix, n)
		fmt.Fprintf(&sizes, "  sizeof(%s%s),\n", SymbolPrefix, n)
	}

	header := "#pragma once\n" +
		"enum EngineShaderIndex\n{\n" + enums.String() + "  kEngineShaderCount,\n};\n" +
		"extern const unsigned char* kEngineShaderBinSrcs[];\n" +
		"extern const size_t kEngineShaderBinSizes[];"

	source := fmt.Sprintf("#include \"%s\"\n", headerName) + inputs +
		"\nconst unsigned char* kEngineShaderBinSrcs[] = \n{\n" + srcs.String() + "};\n" +
		"const size_t kEngineShaderBinSizes[] = \n{\n" + sizes.String() + "};\n"

	return Table{Header: header, Source: source, Symbols: names}
}

// Options are the arguments of one generation.
type Options struct {
	OutputHeader string
	OutputSource string
	Inputs       []string
}

// Generate reads every input, renders the table and writes both outputs.
func Generate(ctx context.Context, opts Options) (Table, error) {
	logger := ctxlog.FromContext(ctx)

	var sb strings.Builder
	for _, in := range opts.Inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return Table{}, fmt.Errorf("failed to read input: %w", err)
		}
		sb.Write(data)
	}

	t := Render(filepath.Base(opts.OutputHeader), sb.String())
	if err := writeFile(opts.OutputHeader, t.Header); err != nil {
		return Table{}, err
	}
	if err := writeFile(opts.OutputSource, t.Source); err != nil {
		return Table{}, err
	}
	logger.Debug("Shader table written.",
		"header", opts.OutputHeader,
		"source", opts.OutputSource,
		"inputs", len(opts.Inputs),
		"shaders", len(t.Symbols),
	)
	return t, nil
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
