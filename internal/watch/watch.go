// Package watch rebuilds a project when its sources, headers or configuration
// change, and optionally on a fixed interval. Triggers only request builds;
// builds themselves never overlap.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/cbuild/internal/logfields"
)

// DefaultDebounce coalesces bursts of file events, e.g. an editor's save sequence.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc runs one build.
type BuildFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	// Paths are directories watched recursively, or single files.
	Paths []string
	// Exclude lists directories whose events are ignored, typically the build directory.
	Exclude []string
	// Debounce is the quiet period before a rebuild. Defaults to DefaultDebounce.
	Debounce time.Duration
	// Interval triggers a rebuild periodically when positive.
	Interval time.Duration
}

// Watcher turns file events and timer ticks into serialized builds.
type Watcher struct {
	build    BuildFunc
	opts     Options
	dirs     []string
	files    map[string]bool
	exclude  []string
	mu       sync.Mutex
	requests chan struct{}
}

// New returns a Watcher that calls build.
func New(build BuildFunc, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	w := &Watcher{
		build:    build,
		opts:     opts,
		files:    make(map[string]bool),
		requests: make(chan struct{}, 1),
	}
	for _, p := range opts.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, ferrors.RuntimeError("failed to resolve watch path").WithCause(err).WithContext("path", p).Build()
		}
		if fi, err := os.Stat(abs); err == nil && !fi.IsDir() {
			w.files[abs] = true
			continue
		}
		w.dirs = append(w.dirs, abs)
	}
	for _, p := range opts.Exclude {
		if abs, err := filepath.Abs(p); err == nil {
			w.exclude = append(w.exclude, abs)
		}
	}
	return w, nil
}

// Run performs an initial build and then rebuilds on changes until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.RuntimeError("failed to create file watcher").WithCause(err).Build()
	}
	defer func() { _ = fsw.Close() }()

	for _, dir := range w.dirs {
		w.addDirsRecursive(fsw, dir)
	}
	for file := range w.files {
		if err := fsw.Add(filepath.Dir(file)); err != nil {
			slog.Warn("Watch add failed", logfields.Path(file), logfields.Error(err))
		}
	}

	if w.opts.Interval > 0 {
		sched, err := w.schedule(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = sched.Shutdown() }()
	}

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx, done)
	}()
	defer wg.Wait()
	defer close(done)

	w.request()
	slog.Info("Watching for changes",
		logfields.Count(len(w.dirs)+len(w.files)),
		slog.Duration("debounce", w.opts.Debounce),
		slog.Duration("interval", w.opts.Interval))

	return w.loop(ctx, fsw)
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) error {
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev.Name) {
				continue
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					w.addDirsRecursive(fsw, ev.Name)
				}
			}
			slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.opts.Debounce, w.request)
			timerMu.Unlock()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) worker(ctx context.Context, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-w.requests:
			w.runBuild(ctx)
		}
	}
}

// request asks for a build; requests arriving while one is pending coalesce.
func (w *Watcher) request() {
	select {
	case w.requests <- struct{}{}:
	default:
	}
}

// runBuild executes one build while holding the build lock.
func (w *Watcher) runBuild(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if err := w.build(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Build failed", logfields.Error(err))
	}
}

func (w *Watcher) schedule(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.RuntimeError("failed to create scheduler").WithCause(err).Build()
	}
	_, err = sched.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(func() { w.runBuild(ctx) }),
		gocron.WithName("periodic-build"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, ferrors.RuntimeError("failed to schedule periodic build").
			WithCause(err).
			WithContext("interval", w.opts.Interval.String()).
			Build()
	}
	sched.Start()
	return sched, nil
}

// relevant filters out editor artifacts, excluded directories and siblings of
// individually watched files.
func (w *Watcher) relevant(path string) bool {
	if shouldIgnoreEvent(path) {
		return false
	}
	for _, ex := range w.exclude {
		if within(path, ex) {
			return false
		}
	}
	if w.files[path] {
		return true
	}
	for _, dir := range w.dirs {
		if within(path, dir) {
			return true
		}
	}
	return false
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		for _, ex := range w.exclude {
			if within(path, ex) {
				return filepath.SkipDir
			}
		}
		if err := fsw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

func within(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

// shouldIgnoreEvent reports hidden, swap and backup files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return false
}
