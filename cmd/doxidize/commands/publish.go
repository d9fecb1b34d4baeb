package commands

import (
	"fmt"

	"git.home.luguber.info/inful/doxidize/internal/publish"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct{}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	project, err := root.project()
	if err != nil {
		return err
	}
	res, err := publish.New(project).Publish(g.ctx())
	if err != nil {
		return err
	}
	if res.Commit == "" {
		fmt.Fprintf(g.out(), "Site unchanged; %s is up to date\n", res.Branch)
		return nil
	}
	fmt.Fprintf(g.out(), "Published pages from %s to %s\n", res.Revision, res.Branch)
	return nil
}
