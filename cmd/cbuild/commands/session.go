package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/cbuild/internal/config"
	"git.home.luguber.info/inful/cbuild/internal/eventstore"
	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/cbuild/internal/logfields"
	"git.home.luguber.info/inful/cbuild/internal/metrics"
	"git.home.luguber.info/inful/cbuild/internal/notify"
	"git.home.luguber.info/inful/cbuild/internal/project"
)

// session owns the driver and the resources it was wired with.
type session struct {
	driver   *project.Driver
	registry *prom.Registry
	closers  []func() error
}

// openSession wires metrics, history and notifications for cfg. historyPath
// overrides history.path from the configuration.
func openSession(g *Global, cfg *config.Project, historyPath string) (*session, error) {
	s := &session{registry: prom.NewRegistry()}
	opts := []project.Option{
		project.WithStatusWriter(g.stdout()),
		project.WithRecorder(metrics.NewPrometheusRecorder(s.registry)),
	}
	if g != nil && g.Runner != nil {
		opts = append(opts, project.WithRunner(g.Runner))
	}

	if historyPath == "" {
		historyPath = cfg.History.Path
	}
	if historyPath != "" {
		store, err := eventstore.NewSQLiteStore(historyPath)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store.Close)
		opts = append(opts, project.WithHistory(store))
	}

	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject, cfg.Notify.RetryPolicy())
		if err != nil {
			// Notifications are best effort; the build still runs.
			slog.Warn("Build notifications disabled", logfields.Error(err))
		} else {
			s.closers = append(s.closers, pub.Close)
			opts = append(opts, project.WithPublisher(pub))
		}
	}

	s.driver = project.NewDriver(opts...)
	return s, nil
}

func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// build runs one project build and turns failed targets into a build error.
func (s *session) build(ctx context.Context, cfg *config.Project) (*project.Report, error) {
	report, err := s.driver.Build(ctx, cfg)
	if err != nil {
		return report, err
	}
	if !report.Succeeded() {
		failed := report.FailedTargets()
		return report, ferrors.BuildError("build failed").
			WithContext("build_id", report.BuildID).
			WithContext("targets", strings.Join(failed, ",")).
			Build()
	}
	return report, nil
}
