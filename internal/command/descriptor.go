package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/cbuild/internal/toolchain"
)

// Descriptor is one finalized compile or link invocation.
type Descriptor struct {
	toolchain toolchain.Toolchain
	kind      Kind
	inputs    []string
	includes  []string
	flags     []string
	output    string
}

func (d *Descriptor) Kind() Kind         { return d.kind }
func (d *Descriptor) Inputs() []string   { return slices.Clone(d.inputs) }
func (d *Descriptor) Includes() []string { return slices.Clone(d.includes) }
func (d *Descriptor) Flags() []string    { return slices.Clone(d.flags) }
func (d *Descriptor) Output() string     { return d.output }

// InputFilename returns the file name of a compile's single input.
func (d *Descriptor) InputFilename() (string, error) {
	switch len(d.inputs) {
	case 0:
		return "", ErrNoInputs
	case 1:
	default:
		return "", fmt.Errorf("%w: have %d", ErrTooManyInputs, len(d.inputs))
	}
	return filepath.Base(d.inputs[0]), nil
}

// InputString renders the inputs separated by spaces.
func (d *Descriptor) InputString() string {
	return strings.Join(d.inputs, " ")
}

// IncludeFlags renders each include directory as -I<dir>, in insertion order.
func (d *Descriptor) IncludeFlags() []string {
	flags := make([]string, 0, len(d.includes))
	for _, dir := range d.includes {
		flags = append(flags, "-I"+dir)
	}
	return flags
}

// IncludeString renders the include flags separated by spaces.
func (d *Descriptor) IncludeString() string {
	return strings.Join(d.IncludeFlags(), " ")
}

// Args returns the argument vector passed to the toolchain.
func (d *Descriptor) Args() []string {
	var args []string
	switch d.kind {
	case KindCompile:
		args = append(args, d.IncludeFlags()...)
		args = append(args, d.flags...)
		args = append(args, d.inputs...)
		args = append(args, "-c", "-o", d.output)
	default:
		args = append(args, d.inputs...)
		args = append(args, "-o", d.output)
	}
	return args
}

// String renders the full command line for diagnostics.
func (d *Descriptor) String() string {
	return strings.TrimSpace(d.toolchain.Name + " " + strings.Join(d.Args(), " "))
}

// Run creates the output's parent directory and executes the toolchain.
// A non-zero exit is reported in the Result; errors mean the step could not run.
func (d *Descriptor) Run(ctx context.Context, runner toolchain.Runner) (toolchain.Result, error) {
	if parent := filepath.Dir(d.output); parent != "" {
		if err := os.MkdirAll(parent, 0o750); err != nil {
			return toolchain.Result{}, ferrors.FileSystemError("failed to create output directory").
				WithCause(err).
				WithContext("path", parent).
				Build()
		}
	}
	return runner.Run(ctx, d.toolchain.Name, d.Args())
}
