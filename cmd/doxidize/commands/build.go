package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/doxidize/internal/build"
	"git.home.luguber.info/inful/doxidize/internal/linkcheck"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	CheckLinks bool `name:"check-links" help:"Fail when a rendered page links to a missing file"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	// Provide friendly user-facing messages on stdout for CLI integration tests.
	fmt.Fprintln(g.out(), "Starting doxidize build")

	project, err := root.project()
	if err != nil {
		return err
	}
	store, err := openStore(project)
	if err != nil {
		return err
	}
	defer closeStore(store)

	o, err := build.New(project, build.WithStore(store), build.WithLoader(g.loader()))
	if err != nil {
		return err
	}
	report, err := o.Run(g.ctx())
	if err != nil {
		fmt.Fprintln(g.out(), "Build failed")
		return err
	}

	if b.CheckLinks {
		links, err := linkcheck.Check(project.Paths.PublicDir(), project.Config.BasePath())
		if err != nil {
			return err
		}
		for _, br := range links.Broken {
			fmt.Fprintf(g.out(), "broken link in %s: %s\n", br.Page, br.URL)
		}
		if err := links.Err(); err != nil {
			return err
		}
		fmt.Fprintf(g.out(), "Checked %d links in %d pages\n", links.Links, links.Pages)
	}

	fmt.Fprintf(g.out(), "Build completed successfully (%d documents, %d definitions, %d removed) in %s\n",
		report.Documents, report.Definitions, report.Orphans, report.Duration().Round(time.Millisecond))
	return nil
}
