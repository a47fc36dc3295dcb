package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/cbuild/internal/config"
	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/cbuild/internal/logfields"
	"git.home.luguber.info/inful/cbuild/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	MetricsFile       string `name:"metrics-file" help:"Write Prometheus metrics in text format to this file after the build"`
	History           string `name:"history" help:"SQLite build history database (overrides history.path)"`
	KeepGoingExitZero bool   `name:"keep-going-exit-zero" help:"Exit 0 even when some targets failed"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return b.run(ctx, g, cfg)
}

func (b *BuildCmd) run(ctx context.Context, g *Global, cfg *config.Project) error {
	s, err := openSession(g, cfg, b.History)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			slog.Warn("Failed to close build session", logfields.Error(cerr))
		}
	}()

	report, buildErr := s.build(ctx, cfg)

	if b.MetricsFile != "" {
		if err := metrics.WriteTextfile(b.MetricsFile, s.registry); err != nil {
			slog.Warn("Failed to write metrics file", logfields.Path(b.MetricsFile), logfields.Error(err))
		}
	}

	if buildErr != nil && b.KeepGoingExitZero && ferrors.HasCategory(buildErr, ferrors.CategoryBuild) {
		slog.Warn("Some targets failed", slog.Any("targets", report.FailedTargets()))
		return nil
	}
	return buildErr
}
