package tablegen

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

// ErrUsage marks invalid command-line arguments.
var ErrUsage = errors.New("usage error")

// ParseArgs reads the generator's command line:
//
//	shadertable --output_header H --output_source S --inputs A [B ...]
//
// Everything after --inputs is an input. It reports true when the caller
// should exit cleanly, as after -h.
func ParseArgs(args []string, output io.Writer) (Options, bool, error) {
	fs := flag.NewFlagSet("shadertable", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
shadertable - Combines compiled shader headers into a shader table header and source.

Usage:
  shadertable --output_header FILE --output_source FILE --inputs FILE...

Options:
`)
		fs.PrintDefaults()
	}

	header := fs.String("output_header", "", "Path of the generated table header.")
	source := fs.String("output_source", "", "Path of the generated table source.")
	inputs := fs.Bool("inputs", false, "Marks the start of the compiled shader headers. Must come last.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Options{}, true, nil
		}
		return Options{}, false, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	switch {
	case *header == "":
		return Options{}, false, fmt.Errorf("%w: --output_header is required", ErrUsage)
	case *source == "":
		return Options{}, false, fmt.Errorf("%w: --output_source is required", ErrUsage)
	case !*inputs:
		return Options{}, false, fmt.Errorf("%w: --inputs is required", ErrUsage)
	case fs.NArg() == 0:
		return Options{}, false, fmt.Errorf("%w: --inputs needs at least one file", ErrUsage)
	}

	return Options{
		OutputHeader: *header,
		OutputSource: *source,
		Inputs:       fs.Args(),
	}, false, nil
}
