package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/cbuild/internal/eventstore"
	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/cbuild/internal/logfields"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of builds to show" default:"10"`
	DB    string `name:"db" help:"SQLite build history database (overrides history.path)"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	path := h.DB
	if path == "" {
		cfg, err := root.LoadConfig()
		if err != nil {
			return err
		}
		path = cfg.History.Path
	}
	if path == "" {
		return ferrors.ValidationError("build history is not configured (set history.path or --db)").Build()
	}
	return h.show(context.Background(), g.stdout(), path)
}

func (h *HistoryCmd) show(ctx context.Context, out io.Writer, path string) error {
	store, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			slog.Warn("Failed to close history", logfields.Error(cerr))
		}
	}()

	limit := h.Limit
	if limit <= 0 {
		limit = 10
	}
	projection := eventstore.NewBuildHistoryProjection(store, limit)
	if err := projection.Rebuild(ctx); err != nil {
		return err
	}
	builds := projection.GetHistory(limit)
	if len(builds) == 0 {
		_, _ = fmt.Fprintln(out, "no builds recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD ID\tSTARTED\tSTATUS\tTARGETS\tCOMPILED\tDURATION\tFAILED")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			b.BuildID,
			b.StartedAt.Local().Format(time.DateTime),
			b.Status,
			b.Targets,
			b.Compiled,
			b.Duration.Round(time.Millisecond),
			strings.Join(b.FailedTargets, ","))
	}
	return tw.Flush()
}
