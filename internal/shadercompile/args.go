package shadercompile

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

// ErrUsage marks invalid command-line arguments.
var ErrUsage = errors.New("usage error")

// ParseArgs reads the compiler's command line:
//
//	shadercompile SOURCE -o OUTPUT [--path_to_dxc DXC]
//
// Flags may appear before or after the source. It reports true when the
// caller should exit cleanly, as after -h.
func ParseArgs(args []string, output io.Writer) (Options, bool, error) {
	fs := flag.NewFlagSet("shadercompile", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
shadercompile - Compiles a .vsh, .psh, .csh or .rtsh shader into a C header with dxc.

Usage:
  shadercompile SOURCE -o OUTPUT [--path_to_dxc DXC]

Options:
`)
		fs.PrintDefaults()
	}

	var opts Options
	fs.StringVar(&opts.Output, "o", "", "Path of the compiled header.")
	fs.StringVar(&opts.Output, "output", "", "Path of the compiled header (long form).")
	fs.StringVar(&opts.Dxc, "path_to_dxc", DefaultDxc, "Path to the dxc executable.")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return Options{}, true, nil
			}
			return Options{}, false, fmt.Errorf("%w: %v", ErrUsage, err)
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	switch {
	case len(positional) != 1:
		return Options{}, false, fmt.Errorf("%w: expected exactly one shader source, got %d", ErrUsage, len(positional))
	case opts.Output == "":
		return Options{}, false, fmt.Errorf("%w: -o is required", ErrUsage)
	}
	opts.Source = positional[0]
	return opts, false, nil
}
