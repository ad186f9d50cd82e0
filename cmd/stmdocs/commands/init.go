package commands

import (
	"fmt"
	"path/filepath"

	"github.com/kl543/stmdocs/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Root  string `short:"r" help:"Project root directory" default:"." type:"path"`
	Force bool   `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := root.Config
	if !filepath.IsAbs(path) {
		path = filepath.Join(i.Root, path)
	}
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Stdout, "Wrote %s\n", path)
	return nil
}
