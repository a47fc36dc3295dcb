package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/cbuild/internal/config"
	"git.home.luguber.info/inful/cbuild/internal/logfields"
	"git.home.luguber.info/inful/cbuild/internal/metrics"
	"git.home.luguber.info/inful/cbuild/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Interval    time.Duration `help:"Also rebuild on this interval (0 disables)" default:"0s"`
	Debounce    time.Duration `help:"Quiet period before rebuilding after a change" default:"300ms"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address, e.g. :9464"`
	History     string        `name:"history" help:"SQLite build history database (overrides history.path)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	path := root.ConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return w.run(ctx, g, path, cfg)
}

func (w *WatchCmd) run(ctx context.Context, g *Global, path string, cfg *config.Project) error {
	s, err := openSession(g, cfg, w.History)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			slog.Warn("Failed to close build session", logfields.Error(cerr))
		}
	}()

	if w.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              w.MetricsAddr,
			Handler:           metrics.HTTPHandler(s.registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("Serving metrics", slog.String("addr", w.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// Builds are serialized by the watcher, so cfg is only touched by one build at a time.
	build := func(ctx context.Context) error {
		if next, err := config.Load(path); err != nil {
			slog.Warn("Configuration reload failed, keeping previous configuration",
				logfields.Path(path), logfields.Error(err))
		} else {
			cfg = next
		}
		_, err := s.build(ctx, cfg)
		return err
	}

	watcher, err := watch.New(build, watch.Options{
		Paths:    watchPaths(path, cfg),
		Exclude:  []string{cfg.Build.Dir},
		Debounce: w.Debounce,
		Interval: w.Interval,
	})
	if err != nil {
		return err
	}
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchPaths lists the configuration file plus every source and include root.
// Roots that do not exist yet are skipped.
func watchPaths(configPath string, cfg *config.Project) []string {
	paths := []string{configPath}
	seen := map[string]bool{configPath: true}
	for _, t := range cfg.Targets {
		for _, p := range append(append([]string{}, t.Src...), t.Include...) {
			if seen[p] {
				continue
			}
			seen[p] = true
			if _, err := os.Stat(p); err != nil {
				slog.Warn("Skipping missing watch path", logfields.Path(p))
				continue
			}
			paths = append(paths, p)
		}
	}
	return paths
}
