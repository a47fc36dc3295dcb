package command

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/cbuild/internal/toolchain"
)

// Kind is the type of toolchain invocation.
type Kind string

const (
	KindCompile Kind = "compile"
	KindLink    Kind = "link"
)

// Builder accumulates the parts of a Descriptor.
type Builder struct {
	toolchain toolchain.Toolchain
	kind      Kind
	inputs    []string
	includes  []string
	flags     []string
	output    string
	outputSet bool
}

// NewBuilder starts a descriptor for the given toolchain and kind.
func NewBuilder(tc toolchain.Toolchain, kind Kind) *Builder {
	return &Builder{toolchain: tc, kind: kind}
}

// AddInput appends an input path.
func (b *Builder) AddInput(path string) error {
	if b.kind == KindCompile && len(b.inputs) > 0 {
		return fmt.Errorf("%w: already have %s, got %s", ErrTooManyInputs, b.inputs[0], path)
	}
	b.inputs = append(b.inputs, path)
	return nil
}

// AddInputs appends several inputs at once. A compile still accepts only one in total.
func (b *Builder) AddInputs(paths []string) error {
	if b.kind == KindCompile && len(b.inputs)+len(paths) > 1 {
		return fmt.Errorf("%w: %d inputs", ErrTooManyInputs, len(b.inputs)+len(paths))
	}
	b.inputs = append(b.inputs, paths...)
	return nil
}

// AddIncludes appends include directories in the given order.
func (b *Builder) AddIncludes(paths ...string) {
	b.includes = append(b.includes, paths...)
}

// AddFlags appends raw compiler flags.
func (b *Builder) AddFlags(flags ...string) {
	b.flags = append(b.flags, flags...)
}

// SetOutput sets the output path. For a compile the object suffix is appended
// to the file name and the directory is kept; a link uses path verbatim.
func (b *Builder) SetOutput(path string) error {
	if !hasFileName(path) {
		return fmt.Errorf("%w: %q", ErrInvalidOutputName, path)
	}
	if b.kind == KindCompile {
		path = filepath.Join(filepath.Dir(path), b.toolchain.ObjectName(filepath.Base(path)))
	}
	b.output = path
	b.outputSet = true
	return nil
}

// Build finalizes the descriptor.
func (b *Builder) Build() (*Descriptor, error) {
	if !b.outputSet {
		return nil, ErrOutputNotSet
	}
	if len(b.inputs) == 0 {
		return nil, ErrNoInputs
	}
	d := &Descriptor{
		toolchain: b.toolchain,
		kind:      b.kind,
		inputs:    slices.Clone(b.inputs),
		output:    b.output,
	}
	if b.kind == KindCompile {
		d.includes = slices.Clone(b.includes)
		d.flags = slices.Clone(b.flags)
	}
	return d, nil
}

func hasFileName(path string) bool {
	if path == "" || strings.HasSuffix(path, string(filepath.Separator)) || strings.HasSuffix(path, "/") {
		return false
	}
	switch filepath.Base(path) {
	case ".", "..", string(filepath.Separator):
		return false
	}
	return true
}
