// Package toolchain describes the external compiler cbuild drives and the
// narrow process-execution capability used to invoke it.
//
// Every component that shells out receives a Toolchain value and a Runner
// explicitly; nothing reads the compiler name from global state. Tests swap
// ExecRunner for a fake that returns canned output and exit codes.
package toolchain
