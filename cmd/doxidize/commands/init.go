package commands

import (
	"fmt"

	"git.home.luguber.info/inful/doxidize/internal/scaffold"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Regenerate sources even if docs/ already exists"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	project, err := root.project()
	if err != nil {
		return err
	}
	store, err := openStore(project)
	if err != nil {
		return err
	}
	defer closeStore(store)

	fmt.Fprintln(g.out(), "Initializing doxidize project")
	s, err := scaffold.New(project, scaffold.WithStore(store), scaffold.WithLoader(g.loader()))
	if err != nil {
		return err
	}
	res, err := s.Init(g.ctx(), i.Force)
	if err != nil {
		fmt.Fprintln(g.out(), "Initialization failed")
		return err
	}
	fmt.Fprintf(g.out(), "Initialized %s (%d definitions, %d examples)\n",
		project.Paths.DocsDir(), res.Definitions, res.Examples)
	return nil
}
