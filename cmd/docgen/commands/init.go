package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/docgen/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory to write docgen.yaml into"`
}

func (i *InitCmd) Run(global *Global, root *CLI) error {
	path := root.Config
	if i.Output != "" {
		path = filepath.Join(i.Output, config.DefaultFile)
	}
	_, _ = fmt.Fprintf(global.Out, "Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(global.Out, "Initialized successfully")
	return nil
}
