package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/cbuild/internal/config"
	"git.home.luguber.info/inful/cbuild/internal/foundation"
	"git.home.luguber.info/inful/cbuild/internal/toolchain"
)

// EnvLogLevel selects the log level when -v is not given.
const EnvLogLevel = "CBUILD_LOG_LEVEL"

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
	// Stdout receives status lines. Defaults to os.Stdout.
	Stdout io.Writer
	// Runner overrides the toolchain runner; nil runs real processes.
	Runner toolchain.Runner
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: first of cbuild.json, cbuild.yaml, cbuild.yml, cbuild.hcl, config.json)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build every executable of the project"`
	Init    InitCmd    `cmd:"" help:"Create a new project skeleton"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild whenever sources, headers or the configuration change"`
	History HistoryCmd `cmd:"" help:"List recent builds from the build history"`
	Clean   CleanCmd   `cmd:"" help:"Remove the build directory"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// ConfigPath resolves -c, falling back to discovery in the working directory.
func (c *CLI) ConfigPath() string {
	if c.Config != "" {
		return c.Config
	}
	if path, ok := config.Find("."); ok {
		return path
	}
	return config.DefaultFileName
}

// LoadConfig loads the project configuration selected by ConfigPath.
func (c *CLI) LoadConfig() (*config.Project, error) {
	return config.Load(c.ConfigPath())
}

var logLevels = foundation.NewNormalizer(map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}, slog.LevelInfo)

func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return logLevels.Normalize(os.Getenv(EnvLogLevel))
}
