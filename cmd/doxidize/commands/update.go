package commands

import (
	"fmt"

	"git.home.luguber.info/inful/doxidize/internal/scaffold"
)

// UpdateCmd implements the 'update' command.
type UpdateCmd struct{}

func (u *UpdateCmd) Run(g *Global, root *CLI) error {
	project, err := root.project()
	if err != nil {
		return err
	}
	store, err := openStore(project)
	if err != nil {
		return err
	}
	defer closeStore(store)

	s, err := scaffold.New(project, scaffold.WithStore(store), scaffold.WithLoader(g.loader()))
	if err != nil {
		return err
	}
	res, err := s.Update(g.ctx())
	if err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "Updated documentation sources (%d definitions, %d examples, %d removed)\n",
		res.Definitions, res.Examples, res.Orphans)
	return nil
}
