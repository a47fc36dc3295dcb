package target

import (
	"slices"
	"time"
)

// State is a step of the per-target build state machine.
type State string

const (
	StateScanning       State = "scanning"
	StatePerFileCompile State = "compiling"
	StateLinkDecision   State = "link_decision"
	StateLinking        State = "linking"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// IsTerminal reports whether no further transitions follow.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// Stage names the step a FileFailure happened in.
type Stage string

const (
	StageScan     Stage = "scan"
	StageCompile  Stage = "compile"
	StageLink     Stage = "link"
	StageInternal Stage = "internal"
)

// FileFailure records one failed scan, compile or link.
type FileFailure struct {
	// Path is the source file, or the executable for link failures.
	Path  string
	Stage Stage
	// ExitCode is the toolchain exit status; zero when the process never ran.
	ExitCode int
	Stderr   string
	Err      error
}

// Outcome is the result of building one target.
type Outcome struct {
	Target string
	State  State
	// Sources are the discovered source files, sorted.
	Sources []string
	// Compiled are the sources found stale and handed to the compiler, including
	// those whose compile then failed.
	Compiled []string
	// Objects is the sorted object set passed to the linker.
	Objects    []string
	Linked     bool
	Executable string
	Failures   []FileFailure
	Duration   time.Duration
}

// Succeeded reports whether the target finished without any failure.
func (o *Outcome) Succeeded() bool {
	return o != nil && o.State == StateDone
}

// UpToDate reports whether nothing had to be rebuilt.
func (o *Outcome) UpToDate() bool {
	return o.Succeeded() && len(o.Compiled) == 0
}

// Failed returns the failures of the given stage, in occurrence order.
func (o *Outcome) Failed(stage Stage) []FileFailure {
	var out []FileFailure
	for _, f := range o.Failures {
		if f.Stage == stage {
			out = append(out, f)
		}
	}
	return slices.Clip(out)
}
