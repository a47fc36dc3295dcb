package commands

import (
	"fmt"

	"git.home.luguber.info/inful/cbuild/internal/project"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (c *CleanCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if err := project.Clean(cfg); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.stdout(), "removed %s\n", cfg.Build.Dir)
	return nil
}
