package command

import "errors"

var (
	// ErrTooManyInputs is returned when a second input is added to a compile.
	ErrTooManyInputs = errors.New("compile accepts exactly one input")

	// ErrNoInputs is returned by Build when no input was added.
	ErrNoInputs = errors.New("no input files present")

	// ErrInvalidOutputName is returned when the output path has no file name.
	ErrInvalidOutputName = errors.New("output does not have a valid file name")

	// ErrOutputNotSet is returned by Build when SetOutput was never called.
	ErrOutputNotSet = errors.New("output file not set")
)
