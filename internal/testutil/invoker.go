package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/specialistvlad/shadergrid/internal/buildstep"
	"github.com/specialistvlad/shadergrid/internal/invoker"
)

// TableKey identifies table generator invocations in FakeInvoker maps.
const TableKey = "table"

// FakeInvoker simulates the shader compiler and table generator without
// spawning processes. It understands the two command-line shapes produced by
// the graph: "<input> -o <output>" and "--output_header <h> --output_source <s>".
//
// Compile invocations are keyed by the base name of their input
// ("a.psh"), table invocations by TableKey.
type FakeInvoker struct {
	// Clock stamps every written output. Required.
	Clock *Clock
	// ExitCodes makes matching invocations fail with the given status.
	ExitCodes map[string]int
	// Omit makes matching invocations succeed without writing outputs.
	Omit map[string]bool
	// WriteOnFailure makes failing invocations write their outputs before
	// exiting non-zero.
	WriteOnFailure map[string]bool

	mu    sync.Mutex
	calls []buildstep.Command
}

// NewFakeInvoker returns a FakeInvoker that succeeds for everything.
func NewFakeInvoker(clock *Clock) *FakeInvoker {
	return &FakeInvoker{
		Clock:          clock,
		ExitCodes:      map[string]int{},
		Omit:           map[string]bool{},
		WriteOnFailure: map[string]bool{},
	}
}

// Run implements invoker.Invoker.
func (f *FakeInvoker) Run(_ context.Context, cmd buildstep.Command) (*invoker.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	code := f.ExitCodes[CommandKey(cmd)]
	omit := f.Omit[CommandKey(cmd)]
	partial := f.WriteOnFailure[CommandKey(cmd)]
	f.mu.Unlock()

	if code != 0 && !partial {
		return &invoker.Result{ExitCode: code, Output: []byte("simulated failure for " + CommandKey(cmd))}, nil
	}
	if omit {
		return &invoker.Result{Output: []byte("claimed success")}, nil
	}

	for path, content := range outputsOf(cmd) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return nil, err
		}
		mtime := f.Clock.Next()
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			return nil, err
		}
	}
	if code != 0 {
		return &invoker.Result{ExitCode: code, Output: []byte("simulated failure for " + CommandKey(cmd))}, nil
	}
	return &invoker.Result{}, nil
}

// Calls returns a copy of every command received so far.
func (f *FakeInvoker) Calls() []buildstep.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]buildstep.Command(nil), f.calls...)
}

// CallKeys returns the CommandKey of every command received so far.
func (f *FakeInvoker) CallKeys() []string {
	calls := f.Calls()
	keys := make([]string, len(calls))
	for i, c := range calls {
		keys[i] = CommandKey(c)
	}
	return keys
}

// Reset forgets recorded calls.
func (f *FakeInvoker) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// CommandKey returns the key FakeInvoker uses for cmd.
func CommandKey(cmd buildstep.Command) string {
	for i, a := range cmd.Args {
		if a == "--output_header" {
			return TableKey
		}
		if a == "-o" && i > 0 {
			return filepath.Base(cmd.Args[i-1])
		}
	}
	return cmd.Executable
}

// ArgAfter returns the argument following flag, or "".
func ArgAfter(cmd buildstep.Command, flag string) string {
	for i, a := range cmd.Args {
		if a == flag && i+1 < len(cmd.Args) {
			return cmd.Args[i+1]
		}
	}
	return ""
}

// ArgsAfter returns every argument following flag.
func ArgsAfter(cmd buildstep.Command, flag string) []string {
	for i, a := range cmd.Args {
		if a == flag {
			return append([]string(nil), cmd.Args[i+1:]...)
		}
	}
	return nil
}

func outputsOf(cmd buildstep.Command) map[string]string {
	if CommandKey(cmd) == TableKey {
		return map[string]string{
			ArgAfter(cmd, "--output_header"): "#pragma once\n",
			ArgAfter(cmd, "--output_source"): fmt.Sprintf("// %d inputs\n", len(ArgsAfter(cmd, "--inputs"))),
		}
	}
	out := ArgAfter(cmd, "-o")
	if out == "" {
		return nil
	}
	name := strings.TrimSuffix(filepath.Base(out), ".built.h")
	symbol := strings.NewReplacer(".", "_", "-", "_").Replace(name)
	return map[string]string{
		out: fmt.Sprintf("const unsigned char __kShaderSource__%s[] = { 0x44, 0x58 };\n", symbol),
	}
}
