package project

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/cbuild/internal/config"
	"git.home.luguber.info/inful/cbuild/internal/eventstore"
	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/cbuild/internal/logfields"
	"git.home.luguber.info/inful/cbuild/internal/metrics"
	"git.home.luguber.info/inful/cbuild/internal/notify"
	"git.home.luguber.info/inful/cbuild/internal/observability"
	"git.home.luguber.info/inful/cbuild/internal/staleness"
	"git.home.luguber.info/inful/cbuild/internal/target"
	"git.home.luguber.info/inful/cbuild/internal/toolchain"
)

// Driver builds projects. A Driver may be reused; each Build starts with a
// fresh timestamp cache.
type Driver struct {
	runner     toolchain.Runner
	status     io.Writer
	recorder   metrics.Recorder
	history    eventstore.Store
	publisher  notify.Publisher
	newBuildID func() string
}

// Option configures a Driver.
type Option func(*Driver)

// WithRunner sets the process runner used for every toolchain invocation.
func WithRunner(r toolchain.Runner) Option {
	return func(d *Driver) { d.runner = r }
}

// WithStatusWriter sets where human-readable status lines go.
func WithStatusWriter(w io.Writer) Option {
	return func(d *Driver) { d.status = w }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Driver) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithHistory records build events in store. The driver does not close it.
func WithHistory(store eventstore.Store) Option {
	return func(d *Driver) { d.history = store }
}

// WithPublisher publishes a message after every build.
func WithPublisher(p notify.Publisher) Option {
	return func(d *Driver) {
		if p != nil {
			d.publisher = p
		}
	}
}

// WithBuildIDFunc overrides build ID generation.
func WithBuildIDFunc(fn func() string) Option {
	return func(d *Driver) {
		if fn != nil {
			d.newBuildID = fn
		}
	}
}

// NewDriver returns a Driver running the toolchain in the working directory.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{
		runner:     toolchain.NewExecRunner(""),
		status:     os.Stdout,
		recorder:   metrics.NoopRecorder{},
		publisher:  notify.NoopPublisher{},
		newBuildID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Build builds every target of cfg in order.
//
// The returned error is non-nil only when the build could not run to the end:
// the build directory could not be created, or ctx was canceled. Target
// failures are reported through Report.Succeeded.
func (d *Driver) Build(ctx context.Context, cfg *config.Project) (*Report, error) {
	report := &Report{
		BuildID:   d.newBuildID(),
		Project:   cfg.Name,
		Version:   cfg.Version,
		Toolchain: cfg.Toolchain,
		StartedAt: time.Now(),
	}
	ctx = observability.WithProject(observability.WithBuildID(ctx, report.BuildID), cfg.Name)

	names := make([]string, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		names = append(names, t.Name)
	}
	d.record(ctx, report.BuildID, eventstore.TypeBuildStarted, eventstore.BuildStarted{
		Project:   cfg.Name,
		Version:   cfg.Version,
		Toolchain: cfg.Toolchain,
		BuildDir:  cfg.Build.Dir,
		Targets:   names,
	})
	observability.InfoContext(ctx, "Starting build",
		logfields.Toolchain(cfg.Toolchain),
		logfields.Path(cfg.Build.Dir),
		logfields.Count(len(cfg.Targets)))

	if err := os.MkdirAll(cfg.Build.Dir, 0o750); err != nil {
		ferr := ferrors.FileSystemError("failed to create build directory").
			WithCause(err).
			WithContext("path", cfg.Build.Dir).
			Fatal().
			Build()
		d.abort(ctx, report, "prepare", metrics.BuildOutcomeFailed, ferr)
		return report, ferr
	}

	builder := target.NewBuilder(cfg.ToolchainSpec(), d.runner, cfg.Build.Dir,
		target.WithStatusWriter(d.status),
		target.WithRecorder(d.recorder),
		target.WithOracle(staleness.New()),
	)

	for _, t := range cfg.Targets {
		if err := ctx.Err(); err != nil {
			ferr := ferrors.RuntimeError("build canceled").WithCause(err).Build()
			d.abort(ctx, report, "canceled", metrics.BuildOutcomeCanceled, ferr)
			return report, ferr
		}

		outcome := builder.Build(ctx, t)
		report.Outcomes = append(report.Outcomes, outcome)
		d.record(ctx, report.BuildID, eventstore.TypeTargetCompleted, targetCompleted(outcome))

		if !outcome.Succeeded() {
			observability.WarnContext(ctx, "Target failed",
				logfields.Target(t.Name),
				logfields.State(string(outcome.State)),
				logfields.Count(len(outcome.Failures)))
		}
	}

	report.Duration = time.Since(report.StartedAt)
	d.record(ctx, report.BuildID, eventstore.TypeBuildCompleted, eventstore.BuildCompleted{
		Status:        report.Status(),
		FailedTargets: report.FailedTargets(),
		Compiled:      report.Compiled(),
		DurationMS:    report.Duration.Milliseconds(),
	})

	d.recorder.ObserveBuildDuration(report.Duration)
	if report.Succeeded() {
		d.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	} else {
		d.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
	}
	d.publish(ctx, report)

	observability.InfoContext(ctx, "Build finished",
		slog.String("status", report.Status()),
		logfields.Count(report.Compiled()),
		logfields.Duration(report.Duration))
	return report, nil
}

func (d *Driver) abort(ctx context.Context, report *Report, stage string, outcome metrics.BuildOutcomeLabel, err error) {
	report.Duration = time.Since(report.StartedAt)
	observability.ErrorContext(ctx, "Build aborted", slog.String("stage", stage), logfields.Error(err))
	d.record(ctx, report.BuildID, eventstore.TypeBuildFailed, eventstore.BuildFailed{Stage: stage, Error: err.Error()})
	d.recorder.IncBuildOutcome(outcome)
	d.recorder.ObserveBuildDuration(report.Duration)
}

// record appends an event to the history. History problems never fail a build.
func (d *Driver) record(ctx context.Context, buildID, eventType string, payload any) {
	if d.history == nil {
		return
	}
	e, err := eventstore.NewEvent(buildID, eventType, payload)
	if err == nil {
		err = d.history.Append(context.WithoutCancel(ctx), e)
	}
	if err != nil {
		observability.WarnContext(ctx, "Failed to record build event",
			slog.String("event_type", eventType), logfields.Error(err))
	}
}

func (d *Driver) publish(ctx context.Context, report *Report) {
	if err := d.publisher.Publish(context.WithoutCancel(ctx), report.message()); err != nil {
		observability.WarnContext(ctx, "Failed to publish build notification", logfields.Error(err))
	}
}

// Clean removes the project's build directory.
func Clean(cfg *config.Project) error {
	if err := os.RemoveAll(cfg.Build.Dir); err != nil {
		return ferrors.FileSystemError("failed to remove build directory").
			WithCause(err).
			WithContext("path", cfg.Build.Dir).
			Build()
	}
	slog.Info("Removed build directory", logfields.Path(cfg.Build.Dir))
	return nil
}
