// Package errors provides the classified error primitives used across cbuild.
//
// Errors carry a category (config, filesystem, toolchain, ...), a severity and
// a retry strategy, plus a small structured context map. The CLI adapter maps
// categories onto process exit codes.
//
// Example usage:
//
//	err := errors.FileSystemError("cannot create build directory").
//		WithCause(mkdirErr).
//		WithContext("path", buildDir).
//		Build()
package errors
