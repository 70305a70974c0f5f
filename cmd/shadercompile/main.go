// Command shadercompile compiles one shader source into a C header holding
// a byte array per entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/shadergrid/internal/ctxlog"
	"github.com/specialistvlad/shadergrid/internal/shadercompile"
)

func main() {
	if err := run(os.Stderr, os.Args[1:], shadercompile.New()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, shadercompile.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(outW io.Writer, args []string, c *shadercompile.Compiler) error {
	opts, shouldExit, err := shadercompile.ParseArgs(args, outW)
	if err != nil || shouldExit {
		return err
	}

	logger := slog.New(slog.NewTextHandler(outW, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	_, err = c.Compile(ctx, opts)
	return err
}
