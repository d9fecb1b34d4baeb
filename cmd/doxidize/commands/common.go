// Package commands implements the doxidize subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/doxidize/internal/analysis"
	"git.home.luguber.info/inful/doxidize/internal/config"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
	"git.home.luguber.info/inful/doxidize/internal/manifest"
)

// Global carries what every command shares besides the flags.
type Global struct {
	Context context.Context
	// Out receives the user-facing progress lines.
	Out io.Writer
	// Runner runs cargo and dump commands. Nil runs them for real.
	Runner analysis.Runner
}

func (g *Global) ctx() context.Context {
	if g.Context == nil {
		return context.Background()
	}
	return g.Context
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return io.Discard
	}
	return g.Out
}

func (g *Global) loader() *analysis.Loader {
	return analysis.NewLoader(g.Runner)
}

// CLI definition & global flags.
type CLI struct {
	ManifestPath string           `name:"manifest-path" help:"Path to the crate's Cargo.toml" default:"Cargo.toml"`
	Output       string           `short:"o" name:"output" help:"Output root (overrides output.dir)"`
	Verbose      bool             `short:"v" help:"Enable verbose logging"`
	Version      kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init    InitCmd    `cmd:"" help:"Create the docs directory and generate API and example sources"`
	Update  UpdateCmd  `cmd:"" help:"Regenerate API and example sources"`
	Build   BuildCmd   `cmd:"" help:"Render the documentation site"`
	Clean   CleanCmd   `cmd:"" help:"Remove the output directory"`
	Serve   ServeCmd   `cmd:"" help:"Serve the site and rebuild it on changes"`
	Publish PublishCmd `cmd:"" help:"Push the rendered site to the pages branch"`
	Ver     VersionCmd `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func (c *CLI) project() (*config.Project, error) {
	return config.LoadProject(c.ManifestPath, c.Output)
}

// openStore opens the build state database of project.
func openStore(project *config.Project) (*manifest.Store, error) {
	return manifest.Open(project.Paths.StateDB())
}

func closeStore(s *manifest.Store) {
	if err := s.Close(); err != nil {
		slog.Warn("Failed to close state database", logfields.Error(err))
	}
}
