package commands

import (
	"fmt"

	"git.home.luguber.info/inful/doxidize/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run(g *Global, _ *CLI) error {
	fmt.Fprintln(g.out(), version.String())
	return nil
}
