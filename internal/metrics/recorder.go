package metrics

import "time"

// ResultLabel enumerates per-target result categories for counters.
type ResultLabel string

const (
	ResultBuilt    ResultLabel = "built"
	ResultUpToDate ResultLabel = "up_to_date"
	ResultFailed   ResultLabel = "failed"
)

// BuildOutcomeLabel is the final status of a whole project build.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for project, target and toolchain metrics.
// Implementations must tolerate being called from a single build goroutine only.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	ObserveTargetDuration(target string, d time.Duration)
	IncTargetResult(target string, result ResultLabel)
	ObserveCompileDuration(target string, d time.Duration, success bool)
	IncLinkResult(target string, success bool)
	IncScanFailure(target string)
	SetStaleSources(target string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration)                 {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)                  {}
func (NoopRecorder) ObserveTargetDuration(string, time.Duration)        {}
func (NoopRecorder) IncTargetResult(string, ResultLabel)                {}
func (NoopRecorder) ObserveCompileDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncLinkResult(string, bool)                         {}
func (NoopRecorder) IncScanFailure(string)                              {}
func (NoopRecorder) SetStaleSources(string, int)                        {}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}
