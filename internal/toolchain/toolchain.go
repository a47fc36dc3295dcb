package toolchain

import (
	"path/filepath"
	"strings"
)

const (
	DefaultName         = "gcc"
	DefaultSourceExt    = "c"
	DefaultObjectSuffix = "o"
)

// Toolchain identifies the compiler executable and the file naming conventions it implies.
type Toolchain struct {
	// Name is the executable name or path, e.g. "gcc" or "/usr/bin/clang".
	Name string
	// SourceExt is the extension (without dot) of compilable units.
	SourceExt string
	// ObjectSuffix is appended (after a dot) to object file names.
	ObjectSuffix string
}

// New returns a Toolchain for the given executable with C naming conventions.
func New(name string) Toolchain {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	return Toolchain{
		Name:         name,
		SourceExt:    DefaultSourceExt,
		ObjectSuffix: DefaultObjectSuffix,
	}
}

// IsSource reports whether path has the toolchain's source extension.
func (t Toolchain) IsSource(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return ext != "" && ext == t.sourceExt()
}

// ObjectName appends the object suffix to a file name.
func (t Toolchain) ObjectName(name string) string {
	return name + "." + t.objectSuffix()
}

func (t Toolchain) sourceExt() string {
	if t.SourceExt == "" {
		return DefaultSourceExt
	}
	return strings.TrimPrefix(t.SourceExt, ".")
}

func (t Toolchain) objectSuffix() string {
	if t.ObjectSuffix == "" {
		return DefaultObjectSuffix
	}
	return strings.TrimPrefix(t.ObjectSuffix, ".")
}
