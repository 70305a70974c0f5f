// Command shadertable combines compiled shader headers into a shader table
// header and source file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/shadergrid/internal/ctxlog"
	"github.com/specialistvlad/shadergrid/internal/tablegen"
)

func main() {
	if err := run(os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, tablegen.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(outW io.Writer, args []string) error {
	opts, shouldExit, err := tablegen.ParseArgs(args, outW)
	if err != nil || shouldExit {
		return err
	}

	logger := slog.New(slog.NewTextHandler(outW, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	_, err = tablegen.Generate(ctx, opts)
	return err
}
