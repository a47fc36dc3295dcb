package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	builds  atomic.Int32
	running atomic.Int32
	overlap atomic.Bool
}

func (c *counter) build(context.Context) error {
	if c.running.Add(1) > 1 {
		c.overlap.Store(true)
	}
	defer c.running.Add(-1)
	time.Sleep(5 * time.Millisecond)
	c.builds.Add(1)
	return nil
}

func start(t *testing.T, c *counter, opts Options) {
	t.Helper()
	w, err := New(c.build, opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errc)
	})
}

func TestWatcherRebuildsOnSourceChange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	build := filepath.Join(dir, "build")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "lib"), 0o750))
	require.NoError(t, os.MkdirAll(build, 0o750))

	c := &counter{}
	start(t, c, Options{Paths: []string{src, build}, Exclude: []string{build}, Debounce: 20 * time.Millisecond})

	require.Eventually(t, func() bool { return c.builds.Load() == 1 }, 2*time.Second, 10*time.Millisecond, "initial build")

	require.NoError(t, os.WriteFile(filepath.Join(src, "lib", "util.c"), []byte("int x;"), 0o600))
	require.Eventually(t, func() bool { return c.builds.Load() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(build, "app"), []byte("bin"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".util.c.swp"), []byte("swap"), 0o600))
	assert.Never(t, func() bool { return c.builds.Load() > 2 }, 200*time.Millisecond, 20*time.Millisecond)
}

func TestWatcherSingleFileIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "cbuild.json")
	require.NoError(t, os.WriteFile(cfg, []byte("{}"), 0o600))

	c := &counter{}
	start(t, c, Options{Paths: []string{cfg}, Debounce: 20 * time.Millisecond})
	require.Eventually(t, func() bool { return c.builds.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))
	assert.Never(t, func() bool { return c.builds.Load() > 1 }, 150*time.Millisecond, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(cfg, []byte(`{"name":"demo"}`), 0o600))
	require.Eventually(t, func() bool { return c.builds.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherIntervalBuildsNeverOverlap(t *testing.T) {
	c := &counter{}
	start(t, c, Options{Interval: 10 * time.Millisecond})

	require.Eventually(t, func() bool { return c.builds.Load() >= 4 }, 3*time.Second, 10*time.Millisecond)
	assert.False(t, c.overlap.Load())
}

func TestShouldIgnoreEvent(t *testing.T) {
	for path, want := range map[string]bool{
		"src/main.c":       false,
		"src/.main.c.swp":  true,
		"src/main.c~":      true,
		"src/#main.c#":     true,
		"include/config.h": false,
	} {
		assert.Equal(t, want, shouldIgnoreEvent(path), path)
	}
}
