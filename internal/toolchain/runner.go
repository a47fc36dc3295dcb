package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/cbuild/internal/logfields"
)

// Result is the captured outcome of one toolchain process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the process exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes a process synchronously and captures its output.
//
// A non-zero exit status is reported through Result, not as an error. The
// error return is reserved for processes that could not be started.
type Runner interface {
	Run(ctx context.Context, executable string, args []string) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, executable string, args []string) (Result, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, executable string, args []string) (Result, error) {
	return f(ctx, executable, args)
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct {
	// Dir is the working directory; empty means the current directory.
	Dir string
}

// NewExecRunner returns an ExecRunner rooted at dir.
func NewExecRunner(dir string) *ExecRunner {
	return &ExecRunner{Dir: dir}
}

// Run executes executable with args and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, executable string, args []string) (Result, error) {
	// #nosec G204 -- executable and args come from the project configuration
	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Running toolchain", logfields.Toolchain(executable), slog.String("args", strings.Join(args, " ")))

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	return res, ferrors.ToolchainError(fmt.Sprintf("failed to run %s", executable)).
		WithCause(err).
		WithContext("executable", executable).
		Build()
}
