// Package toolchaintest provides fake toolchain runners for tests.
package toolchaintest

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"git.home.luguber.info/inful/cbuild/internal/toolchain"
)

// Call records one process invocation.
type Call struct {
	Executable string
	Args       []string
}

// Has reports whether the call carries arg.
func (c Call) Has(arg string) bool {
	return slices.Contains(c.Args, arg)
}

// IsScan reports whether the call is a dependency listing (-MM).
func (c Call) IsScan() bool { return c.Has("-MM") }

// IsCompile reports whether the call compiles a single unit (-c).
func (c Call) IsCompile() bool { return c.Has("-c") }

// IsLink reports whether the call is neither a scan nor a compile.
func (c Call) IsLink() bool { return !c.IsScan() && !c.IsCompile() }

// Output returns the argument following -o, or "".
func (c Call) Output() string {
	for i, a := range c.Args {
		if a == "-o" && i+1 < len(c.Args) {
			return c.Args[i+1]
		}
	}
	return ""
}

// Recorder is a Runner that records calls and delegates to Handler.
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	Handler func(call Call) (toolchain.Result, error)
}

// Run records the call and returns Handler's answer, or a zero Result.
func (r *Recorder) Run(_ context.Context, executable string, args []string) (toolchain.Result, error) {
	call := Call{Executable: executable, Args: slices.Clone(args)}
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
	if r.Handler == nil {
		return toolchain.Result{}, nil
	}
	return r.Handler(call)
}

// Calls returns a copy of every recorded call.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Filter returns the recorded calls matching pred.
func (r *Recorder) Filter(pred func(Call) bool) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// Compiler emulates a gcc-like toolchain on the real filesystem.
//
// Dependency scans answer from Headers keyed by source path. Compiles and links
// write their -o output so later staleness checks see fresh artifacts. Sources
// listed in FailCompile exit 1 with the configured stderr; FailLink makes every
// link exit 1.
type Compiler struct {
	Recorder

	// Dir resolves relative paths; empty means the working directory.
	Dir         string
	Headers     map[string][]string
	FailCompile map[string]string
	FailLink    string
	FailScan    map[string]string
}

// NewCompiler returns a Compiler rooted at dir.
func NewCompiler(dir string) *Compiler {
	c := &Compiler{
		Dir:         dir,
		Headers:     map[string][]string{},
		FailCompile: map[string]string{},
		FailScan:    map[string]string{},
	}
	c.Handler = c.handle
	return c
}

func (c *Compiler) handle(call Call) (toolchain.Result, error) {
	switch {
	case call.IsScan():
		src := c.sourceArg(call)
		if msg, ok := c.FailScan[src]; ok {
			return toolchain.Result{ExitCode: 1, Stderr: msg}, nil
		}
		obj := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".o"
		line := obj + ": " + strings.Join(append([]string{src}, c.Headers[src]...), " ") + "\n"
		return toolchain.Result{Stdout: line}, nil
	case call.IsCompile():
		src := c.sourceArg(call)
		if msg, ok := c.FailCompile[src]; ok {
			return toolchain.Result{ExitCode: 1, Stderr: msg}, nil
		}
		return toolchain.Result{}, c.touch(call.Output())
	default:
		if c.FailLink != "" {
			return toolchain.Result{ExitCode: 1, Stderr: c.FailLink}, nil
		}
		return toolchain.Result{}, c.touch(call.Output())
	}
}

// sourceArg returns the first argument naming a .c file.
func (c *Compiler) sourceArg(call Call) string {
	for _, a := range call.Args {
		if strings.HasSuffix(a, ".c") {
			return a
		}
	}
	return ""
}

func (c *Compiler) touch(path string) error {
	if path == "" {
		return nil
	}
	if !filepath.IsAbs(path) && c.Dir != "" {
		path = filepath.Join(c.Dir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("obj"), 0o600)
}
