package target

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/cbuild/internal/command"
	"git.home.luguber.info/inful/cbuild/internal/config"
	"git.home.luguber.info/inful/cbuild/internal/depscan"
	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/cbuild/internal/logfields"
	"git.home.luguber.info/inful/cbuild/internal/metrics"
	"git.home.luguber.info/inful/cbuild/internal/observability"
	"git.home.luguber.info/inful/cbuild/internal/staleness"
	"git.home.luguber.info/inful/cbuild/internal/toolchain"
)

// Builder builds executable targets of one project into a shared build directory.
type Builder struct {
	toolchain toolchain.Toolchain
	runner    toolchain.Runner
	scanner   *depscan.Scanner
	oracle    *staleness.Oracle
	buildDir  string
	status    io.Writer
	recorder  metrics.Recorder
}

// Option configures a Builder.
type Option func(*Builder)

// WithStatusWriter sets where [BUILD], [CC] and [LINK] lines go. Defaults to stdout.
func WithStatusWriter(w io.Writer) Option {
	return func(b *Builder) {
		if w == nil {
			w = io.Discard
		}
		b.status = w
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithOracle shares a staleness oracle, and its timestamp cache, across builders.
func WithOracle(o *staleness.Oracle) Option {
	return func(b *Builder) {
		if o != nil {
			b.oracle = o
		}
	}
}

// NewBuilder returns a Builder that compiles with tc through runner and writes
// objects and executables below buildDir.
func NewBuilder(tc toolchain.Toolchain, runner toolchain.Runner, buildDir string, opts ...Option) *Builder {
	b := &Builder{
		toolchain: tc,
		runner:    runner,
		scanner:   depscan.New(tc, runner),
		oracle:    staleness.New(),
		buildDir:  buildDir,
		status:    os.Stdout,
		recorder:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// run is the mutable state of one target build.
type run struct {
	*Builder
	ctx     context.Context
	cfg     config.Target
	out     *Outcome
	objects map[string]struct{}
}

// Build runs the state machine for one target. It never returns nil; failures
// are reported through the Outcome.
func (b *Builder) Build(ctx context.Context, cfg config.Target) *Outcome {
	start := time.Now()
	r := &run{
		Builder: b,
		ctx:     observability.WithTarget(ctx, cfg.Name),
		cfg:     cfg,
		out:     &Outcome{Target: cfg.Name, State: StateScanning},
		objects: make(map[string]struct{}),
	}

	r.execute()

	r.out.Duration = time.Since(start)
	b.recordOutcome(r.out)
	return r.out
}

func (r *run) execute() {
	r.statusf("\t[BUILD] %s\n", r.cfg.Name)
	if len(r.cfg.Packages) > 0 {
		observability.DebugContext(r.ctx, "Ignoring packages; resolution is not supported",
			slog.Any("packages", r.cfg.Packages))
	}

	sources := DiscoverSources(r.cfg.Src, r.toolchain)
	includes := IncludePaths(r.cfg.Include)
	r.out.Sources = sources
	observability.DebugContext(r.ctx, "Discovered sources",
		logfields.Count(len(sources)),
		slog.Any("includes", includes))

	r.transition(StatePerFileCompile)
	for _, src := range sources {
		if err := r.ctx.Err(); err != nil {
			r.fail(FileFailure{Path: src, Stage: StageCompile, Err: err})
			r.transition(StateFailed)
			return
		}
		r.compileFile(src, includes)
	}
	r.out.Objects = sortedKeys(r.objects)
	r.recorder.SetStaleSources(r.cfg.Name, len(r.out.Compiled))

	r.transition(StateLinkDecision)
	if len(r.out.Compiled) == 0 {
		observability.DebugContext(r.ctx, "Target up to date, skipping link")
		r.finish()
		return
	}

	r.transition(StateLinking)
	r.link()
	r.finish()
}

// compileFile scans, checks and, when stale, compiles one source.
func (r *run) compileFile(src string, includes []string) {
	b := command.NewBuilder(r.toolchain, command.KindCompile)
	if err := b.AddInput(src); err != nil {
		r.invariant(src, err)
		return
	}
	b.AddIncludes(includes...)
	b.AddFlags(r.cfg.CompileFlags()...)
	if err := b.SetOutput(filepath.Join(r.buildDir, src)); err != nil {
		r.invariant(src, err)
		return
	}
	desc, err := b.Build()
	if err != nil {
		r.invariant(src, err)
		return
	}

	object := desc.Output()
	r.objects[object] = struct{}{}

	scanFlags := append(desc.IncludeFlags(), desc.Flags()...)
	headers, err := r.scanner.Scan(r.ctx, scanFlags, src)
	if err != nil {
		r.recorder.IncScanFailure(r.cfg.Name)
		failure := FileFailure{Path: src, Stage: StageScan, Err: err}
		var scanErr *depscan.ScanError
		if errors.As(err, &scanErr) {
			failure.Stderr = scanErr.Output
		}
		r.fail(failure)
		observability.ErrorContext(r.ctx, "Dependency scan failed",
			logfields.Source(src), logfields.Error(err))
		return
	}

	if !r.oracle.IsStale(src, object, headers) {
		observability.DebugContext(r.ctx, "Object up to date", logfields.Source(src), logfields.Object(object))
		return
	}

	name, err := desc.InputFilename()
	if err != nil {
		r.invariant(src, err)
		return
	}
	r.out.Compiled = append(r.out.Compiled, src)
	r.statusf("\t[CC]: %s\n", name)
	observability.DebugContext(r.ctx, "Compiling", logfields.Source(src), slog.String("command", desc.String()))

	start := time.Now()
	res, err := desc.Run(r.ctx, r.runner)
	r.recorder.ObserveCompileDuration(r.cfg.Name, time.Since(start), err == nil && res.Success())
	switch {
	case err != nil:
		r.fail(FileFailure{Path: src, Stage: StageCompile, Err: err})
		observability.ErrorContext(r.ctx, "Compiler could not run", logfields.Source(src), logfields.Error(err))
	case !res.Success():
		r.fail(FileFailure{Path: src, Stage: StageCompile, ExitCode: res.ExitCode, Stderr: res.Stderr})
		r.statusf("%s\n", res.Stderr)
		observability.ErrorContext(r.ctx, "Compilation failed",
			logfields.Source(src), logfields.ExitCode(res.ExitCode), logfields.Stderr(res.Stderr))
	}
}

func (r *run) link() {
	exe := filepath.Join(r.buildDir, r.cfg.Name)
	r.out.Executable = exe
	r.statusf("\t[LINK]: %s\n", r.cfg.Name)

	b := command.NewBuilder(r.toolchain, command.KindLink)
	if err := b.AddInputs(r.out.Objects); err != nil {
		r.invariant(exe, err)
		return
	}
	if err := b.SetOutput(exe); err != nil {
		r.invariant(exe, err)
		return
	}
	desc, err := b.Build()
	if err != nil {
		r.invariant(exe, err)
		return
	}

	res, err := desc.Run(r.ctx, r.runner)
	r.recorder.IncLinkResult(r.cfg.Name, err == nil && res.Success())
	switch {
	case err != nil:
		r.fail(FileFailure{Path: exe, Stage: StageLink, Err: err})
		observability.ErrorContext(r.ctx, "Linker could not run", logfields.Output(exe), logfields.Error(err))
	case !res.Success():
		r.fail(FileFailure{Path: exe, Stage: StageLink, ExitCode: res.ExitCode, Stderr: res.Stderr})
		r.statusf("%s\n", res.Stderr)
		observability.ErrorContext(r.ctx, "Link failed",
			logfields.Output(exe), logfields.ExitCode(res.ExitCode), logfields.Stderr(res.Stderr))
	default:
		r.out.Linked = true
		observability.DebugContext(r.ctx, "Linked", logfields.Output(exe), logfields.Count(len(r.out.Objects)))
	}
}

// invariant records a descriptor contract violation. These indicate a bug in
// the build orchestration, never bad user input.
func (r *run) invariant(path string, err error) {
	wrapped := ferrors.InternalError("command descriptor invariant violated").
		WithCause(err).
		WithContext("path", path).
		Build()
	r.fail(FileFailure{Path: path, Stage: StageInternal, Err: wrapped})
	observability.ErrorContext(r.ctx, "Build invariant violated", logfields.Path(path), logfields.Error(err))
}

func (r *run) fail(f FileFailure) {
	r.out.Failures = append(r.out.Failures, f)
}

func (r *run) finish() {
	if len(r.out.Failures) > 0 {
		r.transition(StateFailed)
		return
	}
	r.transition(StateDone)
}

func (r *run) transition(to State) {
	if r.out.State.IsTerminal() {
		return
	}
	observability.DebugContext(r.ctx, "Target state transition",
		slog.String("from", string(r.out.State)), logfields.State(string(to)))
	r.out.State = to
}

func (r *run) statusf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.status, format, args...)
}

func (b *Builder) recordOutcome(o *Outcome) {
	b.recorder.ObserveTargetDuration(o.Target, o.Duration)
	switch {
	case !o.Succeeded():
		b.recorder.IncTargetResult(o.Target, metrics.ResultFailed)
	case o.UpToDate():
		b.recorder.IncTargetResult(o.Target, metrics.ResultUpToDate)
	default:
		b.recorder.IncTargetResult(o.Target, metrics.ResultBuilt)
	}
}
