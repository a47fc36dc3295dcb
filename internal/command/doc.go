// Package command builds and runs single toolchain invocations.
//
// A Descriptor is an immutable description of one compile or link step. It is
// produced by a Builder that checks the descriptor invariants as inputs are
// added and again when Build is called:
//
//   - a compile has exactly one input and may carry include paths and flags;
//   - a link has one or more inputs and never renders include paths or flags;
//   - the output path is always set.
//
// For compiles, SetOutput appends the toolchain's object suffix to the file
// name, so "build/src/a.c" becomes "build/src/a.c.o".
package command
