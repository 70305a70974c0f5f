// Package builderr defines the error taxonomy of the shader pipeline. Every
// failure surfaced to a caller is an *Error whose Kind is one of the sentinel
// values below, so callers can classify it with errors.Is.
package builderr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration reports a graph that cannot be assembled, such as an
	// empty shader set or two shaders sharing a base name.
	ErrConfiguration = errors.New("configuration error")
	// ErrStalenessCheck reports unreadable filesystem metadata.
	ErrStalenessCheck = errors.New("staleness check failed")
	// ErrCompile reports a per-file compile step that exited non-zero or did
	// not produce its declared output.
	ErrCompile = errors.New("compile failure")
	// ErrAggregation is ErrCompile for the shader table step.
	ErrAggregation = errors.New("aggregation failure")
)

// Error carries the failing step's identity and whatever the external
// process printed.
type Error struct {
	Kind     error
	Step     string
	Msg      string
	ExitCode int
	Output   []byte
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Step != "" {
		fmt.Fprintf(&b, " [%s]", e.Step)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if out := strings.TrimSpace(string(e.Output)); out != "" {
		b.WriteString("\n")
		b.WriteString(out)
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Configf builds an ErrConfiguration error.
func Configf(format string, args ...any) error {
	return &Error{Kind: ErrConfiguration, Msg: fmt.Sprintf(format, args...)}
}

// Staleness builds an ErrStalenessCheck error for step.
func Staleness(step string, err error) error {
	return &Error{Kind: ErrStalenessCheck, Step: step, Err: err}
}

// Output returns the captured process output of err, if it is an *Error.
func Output(err error) []byte {
	var be *Error
	if errors.As(err, &be) {
		return be.Output
	}
	return nil
}
