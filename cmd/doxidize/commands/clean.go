package commands

import (
	"fmt"
	"os"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/manifest"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (c *CleanCmd) Run(g *Global, root *CLI) error {
	project, err := root.project()
	if err != nil {
		return err
	}
	out := project.Paths.OutputDir()
	if err := os.RemoveAll(out); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to remove output directory").
			WithContext("dir", out).
			Build()
	}

	// The recorded site no longer exists; the next build starts from scratch.
	store, err := openStore(project)
	if err != nil {
		return err
	}
	defer closeStore(store)
	if err := store.Forget(g.ctx(), manifest.ScopeSite); err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "Removed %s\n", out)
	return nil
}
