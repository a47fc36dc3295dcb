package commands

import (
	"fmt"

	"git.home.luguber.info/inful/cbuild/internal/config"
	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/cbuild/internal/scaffold"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir      string `short:"d" help:"Project directory" default:"."`
	Name     string `short:"n" help:"Project and executable name (default: directory name)"`
	Format   string `short:"f" help:"Configuration format" enum:"json,yaml,hcl" default:"json"`
	Compiler string `help:"Compiler driver to configure" default:"gcc"`
	Force    bool   `help:"Overwrite existing files"`
	Git      bool   `help:"Initialize a git repository"`
}

func (i *InitCmd) Run(g *Global, _ *CLI) error {
	out := g.stdout()
	format := config.ParseFormat(i.Format)
	if format == "" {
		return ferrors.ValidationError("unknown configuration format").WithContext("format", i.Format).Build()
	}

	// Provide friendly user-facing messages on stdout.
	_, _ = fmt.Fprintln(out, "Initializing cbuild project")
	res, err := scaffold.Init(scaffold.Options{
		Dir:       i.Dir,
		Name:      i.Name,
		Format:    format,
		Toolchain: i.Compiler,
		Force:     i.Force,
		Git:       i.Git,
	})
	if err != nil {
		_, _ = fmt.Fprintln(out, "Initialization failed")
		return err
	}
	for _, f := range res.Files {
		_, _ = fmt.Fprintf(out, "  created %s\n", f)
	}
	if res.Repository {
		_, _ = fmt.Fprintln(out, "  initialized git repository")
	}
	_, _ = fmt.Fprintf(out, "initialized successfully in %s\n", res.Dir)
	return nil
}
