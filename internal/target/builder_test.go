package target

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cbuild/internal/config"
	"git.home.luguber.info/inful/cbuild/internal/depscan"
	"git.home.luguber.info/inful/cbuild/internal/metrics"
	"git.home.luguber.info/inful/cbuild/internal/toolchain"
	"git.home.luguber.info/inful/cbuild/internal/toolchain/toolchaintest"
)

var past = time.Now().Add(-time.Hour)

// writeFile creates path relative to the working directory and back-dates it so
// objects produced during the test are strictly newer.
func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("int x;\n"), 0o600))
	require.NoError(t, os.Chtimes(path, past, past))
}

func touchFuture(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
}

type fixture struct {
	cc      *toolchaintest.Compiler
	status  *bytes.Buffer
	builder *Builder
}

func newFixture(t *testing.T, sources ...string) *fixture {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, s := range sources {
		writeFile(t, s)
	}
	cc := toolchaintest.NewCompiler("")
	var status bytes.Buffer
	return &fixture{
		cc:      cc,
		status:  &status,
		builder: NewBuilder(toolchain.New("gcc"), cc, "build", WithStatusWriter(&status)),
	}
}

// rebuild runs a second build with a fresh builder, as a new cbuild invocation would.
func (f *fixture) rebuild(t *testing.T, cfg config.Target) *Outcome {
	t.Helper()
	f.cc.Reset()
	f.status.Reset()
	f.builder = NewBuilder(toolchain.New("gcc"), f.cc, "build", WithStatusWriter(f.status))
	return f.builder.Build(t.Context(), cfg)
}

func appTarget() config.Target {
	return config.Target{Name: "app", Src: []string{"src"}, Include: []string{"include"}}
}

func compiled(calls []toolchaintest.Call) []string {
	var out []string
	for _, c := range calls {
		if c.IsCompile() {
			out = append(out, c.Output())
		}
	}
	return out
}

func TestBuildZeroSources(t *testing.T) {
	f := newFixture(t)

	out := f.builder.Build(t.Context(), config.Target{Name: "app", Src: []string{"missing"}})

	assert.Equal(t, StateDone, out.State)
	assert.True(t, out.UpToDate())
	assert.Empty(t, out.Sources)
	assert.False(t, out.Linked)
	assert.Empty(t, f.cc.Calls())
	assert.Equal(t, "\t[BUILD] app\n", f.status.String())
}

func TestBuildCompilesAndLinksEverythingInitially(t *testing.T) {
	f := newFixture(t, "src/b.c", "src/a.c", "src/sub/c.c", "src/notes.txt")

	out := f.builder.Build(t.Context(), appTarget())

	require.True(t, out.Succeeded(), "failures: %+v", out.Failures)
	assert.Equal(t, []string{"src/a.c", "src/b.c", "src/sub/c.c"}, out.Sources)
	assert.Equal(t, out.Sources, out.Compiled)
	assert.Equal(t, []string{"build/src/a.c.o", "build/src/b.c.o", "build/src/sub/c.c.o"}, out.Objects)
	assert.True(t, out.Linked)
	assert.Equal(t, "build/app", out.Executable)

	links := f.cc.Filter(toolchaintest.Call.IsLink)
	require.Len(t, links, 1)
	assert.Equal(t, []string{"build/src/a.c.o", "build/src/b.c.o", "build/src/sub/c.c.o", "-o", "build/app"}, links[0].Args)
	assert.FileExists(t, "build/app")

	assert.Equal(t, "\t[BUILD] app\n\t[CC]: a.c\n\t[CC]: b.c\n\t[CC]: c.c\n\t[LINK]: app\n", f.status.String())
}

func TestBuildRecompilesOnlyStaleSources(t *testing.T) {
	f := newFixture(t, "src/a.c", "src/b.c", "src/c.c")
	require.True(t, f.builder.Build(t.Context(), appTarget()).Succeeded())

	touchFuture(t, "src/b.c")
	out := f.rebuild(t, appTarget())

	require.True(t, out.Succeeded())
	assert.Equal(t, []string{"src/b.c"}, out.Compiled)
	assert.Equal(t, []string{"build/src/b.c.o"}, compiled(f.cc.Calls()))

	links := f.cc.Filter(toolchaintest.Call.IsLink)
	require.Len(t, links, 1)
	assert.Equal(t, []string{"build/src/a.c.o", "build/src/b.c.o", "build/src/c.c.o", "-o", "build/app"}, links[0].Args)
}

func TestBuildUpToDateSkipsCompileAndLink(t *testing.T) {
	f := newFixture(t, "src/a.c", "src/b.c")
	require.True(t, f.builder.Build(t.Context(), appTarget()).Succeeded())

	out := f.rebuild(t, appTarget())

	assert.True(t, out.UpToDate())
	assert.False(t, out.Linked)
	assert.Len(t, f.cc.Filter(toolchaintest.Call.IsScan), 2)
	assert.Empty(t, f.cc.Filter(toolchaintest.Call.IsCompile))
	assert.Empty(t, f.cc.Filter(toolchaintest.Call.IsLink))
	assert.Equal(t, "\t[BUILD] app\n", f.status.String())
}

func TestBuildMissingObjectIsRecompiled(t *testing.T) {
	f := newFixture(t, "src/a.c", "src/b.c")
	require.True(t, f.builder.Build(t.Context(), appTarget()).Succeeded())
	require.NoError(t, os.Remove("build/src/a.c.o"))

	out := f.rebuild(t, appTarget())

	assert.Equal(t, []string{"src/a.c"}, out.Compiled)
	assert.True(t, out.Linked)
}

func TestBuildHeaderChangeTriggersRebuild(t *testing.T) {
	f := newFixture(t, "src/a.c", "src/b.c", "include/a.h", "include/unused.h")
	f.cc.Headers["src/a.c"] = []string{"include/a.h"}
	require.True(t, f.builder.Build(t.Context(), appTarget()).Succeeded())

	touchFuture(t, "include/unused.h")
	out := f.rebuild(t, appTarget())
	assert.True(t, out.UpToDate(), "an unrelated header must not cause a rebuild")

	touchFuture(t, "include/a.h")
	out = f.rebuild(t, appTarget())
	assert.Equal(t, []string{"src/a.c"}, out.Compiled)
	assert.True(t, out.Linked)
}

func TestBuildDeletedHeaderDoesNotForceRebuild(t *testing.T) {
	f := newFixture(t, "src/a.c", "include/a.h")
	f.cc.Headers["src/a.c"] = []string{"include/a.h"}
	require.True(t, f.builder.Build(t.Context(), appTarget()).Succeeded())

	require.NoError(t, os.Remove("include/a.h"))
	out := f.rebuild(t, appTarget())

	assert.True(t, out.UpToDate())
}

func TestBuildCompileFailureContinuesWithSiblings(t *testing.T) {
	f := newFixture(t, "src/a.c", "src/b.c")
	f.cc.FailCompile["src/a.c"] = "a.c:1: error: expected ';'"

	out := f.builder.Build(t.Context(), appTarget())

	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, []string{"src/a.c", "src/b.c"}, out.Compiled)
	assert.FileExists(t, "build/src/b.c.o")
	assert.NoFileExists(t, "build/src/a.c.o")

	failures := out.Failed(StageCompile)
	require.Len(t, failures, 1)
	assert.Equal(t, "src/a.c", failures[0].Path)
	assert.Equal(t, 1, failures[0].ExitCode)
	assert.Contains(t, failures[0].Stderr, "expected ';'")
	assert.Contains(t, f.status.String(), "expected ';'")

	assert.Len(t, f.cc.Filter(toolchaintest.Call.IsLink), 1, "link is still attempted")
}

func TestBuildScanFailureFailsOnlyThatFile(t *testing.T) {
	f := newFixture(t, "src/a.c", "src/b.c")
	f.cc.FailScan["src/a.c"] = "fatal error: missing.h: No such file"

	out := f.builder.Build(t.Context(), appTarget())

	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, []string{"src/b.c"}, out.Compiled)
	assert.Contains(t, out.Objects, "build/src/a.c.o")

	failures := out.Failed(StageScan)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, depscan.ErrToolchainFailed)
	assert.Contains(t, failures[0].Stderr, "missing.h")
}

func TestBuildMalformedScanOutput(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, "src/a.c")
	runner := &toolchaintest.Recorder{Handler: func(c toolchaintest.Call) (toolchain.Result, error) {
		return toolchain.Result{Stdout: "no rule here"}, nil
	}}

	out := NewBuilder(toolchain.New("gcc"), runner, "build", WithStatusWriter(nil)).Build(t.Context(), appTarget())

	assert.Equal(t, StateFailed, out.State)
	require.Len(t, out.Failures, 1)
	assert.ErrorIs(t, out.Failures[0].Err, depscan.ErrMalformedOutput)
	assert.Empty(t, runner.Filter(toolchaintest.Call.IsCompile))
}

func TestBuildLinkFailure(t *testing.T) {
	f := newFixture(t, "src/a.c")
	f.cc.FailLink = "undefined reference to `main'"

	out := f.builder.Build(t.Context(), appTarget())

	assert.Equal(t, StateFailed, out.State)
	assert.False(t, out.Linked)
	failures := out.Failed(StageLink)
	require.Len(t, failures, 1)
	assert.Equal(t, "build/app", failures[0].Path)
	assert.Contains(t, f.status.String(), "undefined reference")
}

func TestBuildLaunchFailure(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, "src/a.c")
	launchErr := errors.New("exec: \"gcc\": executable file not found in $PATH")
	cc := toolchaintest.NewCompiler("")
	inner := cc.Handler
	cc.Handler = func(c toolchaintest.Call) (toolchain.Result, error) {
		if c.IsCompile() {
			return toolchain.Result{}, launchErr
		}
		return inner(c)
	}

	out := NewBuilder(toolchain.New("gcc"), cc, "build", WithStatusWriter(nil)).Build(t.Context(), appTarget())

	assert.Equal(t, StateFailed, out.State)
	failures := out.Failed(StageCompile)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, launchErr)
	assert.Zero(t, failures[0].ExitCode)
}

func TestBuildFlagsReachScanAndCompile(t *testing.T) {
	f := newFixture(t, "./src/a.c")
	cfg := config.Target{
		Name:    "app",
		Src:     []string{"./src"},
		Include: []string{"include", "./include", "vendor"},
		Flags:   []string{"-Wall"},
		Options: []config.Option{{Key: "DEBUG", Value: "1"}, {Key: "FAST"}},
	}

	require.True(t, f.builder.Build(t.Context(), cfg).Succeeded())

	want := []string{"-Iinclude", "-Ivendor", "-Wall", "-DDEBUG=1", "-DFAST", "src/a.c"}
	scans := f.cc.Filter(toolchaintest.Call.IsScan)
	require.Len(t, scans, 1)
	assert.Equal(t, append(want, "-MM"), scans[0].Args)

	compiles := f.cc.Filter(toolchaintest.Call.IsCompile)
	require.Len(t, compiles, 1)
	assert.Equal(t, append(want, "-c", "-o", "build/src/a.c.o"), compiles[0].Args)

	links := f.cc.Filter(toolchaintest.Call.IsLink)
	require.Len(t, links, 1)
	assert.Equal(t, []string{"build/src/a.c.o", "-o", "build/app"}, links[0].Args)
	assert.Equal(t, "gcc", links[0].Executable)
}

func TestBuildCanceledContext(t *testing.T) {
	f := newFixture(t, "src/a.c")
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	out := f.builder.Build(ctx, appTarget())

	assert.Equal(t, StateFailed, out.State)
	require.Len(t, out.Failures, 1)
	assert.ErrorIs(t, out.Failures[0].Err, context.Canceled)
	assert.Empty(t, f.cc.Calls())
}

type resultRecorder struct {
	metrics.NoopRecorder
	results []metrics.ResultLabel
	stale   int
}

func (r *resultRecorder) IncTargetResult(_ string, res metrics.ResultLabel) {
	r.results = append(r.results, res)
}

func (r *resultRecorder) SetStaleSources(_ string, n int) { r.stale = n }

func TestBuildRecordsMetrics(t *testing.T) {
	f := newFixture(t, "src/a.c", "src/b.c")
	rec := &resultRecorder{}

	b := NewBuilder(toolchain.New("gcc"), f.cc, "build", WithStatusWriter(nil), WithRecorder(rec))
	b.Build(t.Context(), appTarget())
	assert.Equal(t, 2, rec.stale)

	b = NewBuilder(toolchain.New("gcc"), f.cc, "build", WithStatusWriter(nil), WithRecorder(rec))
	b.Build(t.Context(), appTarget())
	assert.Equal(t, 0, rec.stale)

	f.cc.FailLink = "boom"
	touchFuture(t, "src/a.c")
	b = NewBuilder(toolchain.New("gcc"), f.cc, "build", WithStatusWriter(nil), WithRecorder(rec))
	b.Build(t.Context(), appTarget())

	assert.Equal(t, []metrics.ResultLabel{metrics.ResultBuilt, metrics.ResultUpToDate, metrics.ResultFailed}, rec.results)
}
