package builderr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Kind: ErrCompile, Step: "compile:a.psh", ExitCode: 3})

	assert.ErrorIs(t, err, ErrCompile)
	assert.NotErrorIs(t, err, ErrAggregation)
}

func TestError_IsCause(t *testing.T) {
	err := Staleness("compile:a.psh", fs.ErrNotExist)

	assert.ErrorIs(t, err, ErrStalenessCheck)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, "staleness check failed [compile:a.psh]: file does not exist", err.Error())
}

func TestConfigf(t *testing.T) {
	err := Configf("no shader sources found in %s", "Code/Engine")

	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, "configuration error: no shader sources found in Code/Engine", err.Error())
}

func TestOutput(t *testing.T) {
	err := fmt.Errorf("run: %w", &Error{Kind: ErrCompile, Output: []byte("syntax error")})

	assert.Equal(t, []byte("syntax error"), Output(err))
	assert.Nil(t, Output(errors.New("plain")))
}

func TestError_IncludesProcessOutput(t *testing.T) {
	err := &Error{
		Kind:   ErrCompile,
		Step:   "compile:a.psh",
		Msg:    "dxc exited with status 1",
		Output: []byte("a.psh:3:1: error X3000: syntax error\n\n"),
	}

	assert.Equal(t, "compile failure [compile:a.psh]: dxc exited with status 1\na.psh:3:1: error X3000: syntax error", err.Error())
	assert.Equal(t, "compile failure [compile:a.psh]", (&Error{Kind: ErrCompile, Step: "compile:a.psh", Output: []byte(" \n")}).Error())
}
