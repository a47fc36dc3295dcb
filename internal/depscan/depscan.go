// Package depscan lists the headers a source file transitively includes by
// asking the toolchain for a make-style dependency rule (-MM).
//
// The include flags given to Scan must be the ones the real compile uses;
// otherwise the header set, and every staleness decision built on it, can
// diverge from what the compiler actually reads.
package depscan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/cbuild/internal/toolchain"
)

var (
	// ErrMalformedOutput marks dependency output without a rule separator.
	ErrMalformedOutput = errors.New("unparseable dependencies")

	// ErrToolchainFailed marks a dependency listing that exited non-zero.
	ErrToolchainFailed = errors.New("dependency listing failed")
)

// ScanError describes a failed scan of one source file.
type ScanError struct {
	Source string
	// Output holds the raw scanner stdout for parse failures or stderr for toolchain failures.
	Output string
	Err    error
}

func (e *ScanError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%v: %q", e.Err, e.Output)
	}
	return fmt.Sprintf("%s: %v: %q", e.Source, e.Err, e.Output)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Scanner runs dependency listings through a toolchain.
type Scanner struct {
	Toolchain toolchain.Toolchain
	Runner    toolchain.Runner
}

// New returns a Scanner for tc that executes through runner.
func New(tc toolchain.Toolchain, runner toolchain.Runner) *Scanner {
	return &Scanner{Toolchain: tc, Runner: runner}
}

// Scan returns the header dependencies of source.
//
// flags are placed before the source exactly as the compile step places them.
func (s *Scanner) Scan(ctx context.Context, flags []string, source string) ([]string, error) {
	args := make([]string, 0, len(flags)+2)
	args = append(args, flags...)
	args = append(args, source, "-MM")

	res, err := s.Runner.Run(ctx, s.Toolchain.Name, args)
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, classify(&ScanError{Source: source, Output: res.Stderr, Err: ErrToolchainFailed})
	}

	deps, err := Parse(strings.TrimRight(res.Stdout, " \t\r\n"))
	if err != nil {
		var scanErr *ScanError
		if errors.As(err, &scanErr) {
			scanErr.Source = source
			return nil, classify(scanErr)
		}
		return nil, err
	}
	return deps, nil
}

// classify wraps a scan failure as a dependency error; errors.As still finds the ScanError.
func classify(se *ScanError) error {
	b := ferrors.DependencyError("dependency scan failed").WithCause(se)
	if se.Source != "" {
		b = b.WithContext("source", se.Source)
	}
	return b.Build()
}

// Parse extracts header paths from a rule of the form "target: source dep1 dep2...".
//
// Empty output yields no dependencies. Output without a colon is an error. The
// first token after the colon restates the source and is dropped, as are the
// backslash continuations compilers emit when they wrap long rules.
func Parse(output string) ([]string, error) {
	if output == "" {
		return []string{}, nil
	}

	_, rest, found := strings.Cut(output, ":")
	if !found {
		return nil, classify(&ScanError{Output: output, Err: ErrMalformedOutput})
	}

	fields := strings.Fields(rest)
	deps := make([]string, 0, len(fields))
	for i, f := range fields {
		if i == 0 || f == `\` {
			continue
		}
		deps = append(deps, f)
	}
	return deps, nil
}
