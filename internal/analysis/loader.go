package analysis

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/doxidize/internal/analysis/dump"
	"git.home.luguber.info/inful/doxidize/internal/analysis/rustsrc"
	"git.home.luguber.info/inful/doxidize/internal/config"
	"git.home.luguber.info/inful/doxidize/internal/defs"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
)

// Result is a loaded definition source together with its crate root.
type Result struct {
	Crate  string
	Root   defs.ID
	Source defs.Source
	// Inputs are the files the definitions were read from; the live reload
	// watcher rebuilds when they change.
	Inputs []string
}

// Loader loads definitions with the configured backend.
type Loader struct {
	run Runner
}

// NewLoader returns a Loader that runs external tools with run. A nil run
// uses ExecRunner.
func NewLoader(run Runner) *Loader {
	if run == nil {
		run = ExecRunner
	}
	return &Loader{run: run}
}

// Enabled reports whether the project documents an API at all.
func Enabled(p *config.Project) bool {
	return p.Config.Analysis.Backend != config.BackendNone
}

// Load reads the definitions of the project's crate. It returns nil when the
// project has no API documentation.
func (l *Loader) Load(ctx context.Context, p *config.Project) (*Result, error) {
	switch p.Config.Analysis.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendDump:
		return l.loadDump(ctx, p)
	default:
		return l.loadSources(ctx, p)
	}
}

func (l *Loader) loadSources(ctx context.Context, p *config.Project) (*Result, error) {
	target, err := ResolveTarget(ctx, l.run, p.Paths.Manifest)
	if err != nil {
		return nil, err
	}
	slog.Debug("Parsing crate sources", logfields.Name(target.CrateName()), logfields.File(target.SrcPath))

	crate, err := rustsrc.Load(target.CrateName(), target.SrcPath)
	if err != nil {
		return nil, err
	}
	return &Result{Crate: crate.Name, Root: crate.Root, Source: crate.Index, Inputs: crate.Files}, nil
}

func (l *Loader) loadDump(ctx context.Context, p *config.Project) (*Result, error) {
	cfg := p.Config.Analysis
	var (
		d      *dump.Dump
		err    error
		inputs []string
	)
	if len(cfg.Command) > 0 {
		var out []byte
		out, err = l.run(ctx, p.Paths.Root, cfg.Command[0], cfg.Command[1:]...)
		if err != nil {
			return nil, err
		}
		d, err = dump.Decode(out)
	} else {
		path := cfg.Dump
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.Paths.Root, path)
		}
		inputs = append(inputs, path)
		d, err = dump.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	crate := d.Crate
	if crate == "" {
		target, err := ResolveTarget(ctx, l.run, p.Paths.Manifest)
		if err != nil {
			return nil, err
		}
		crate = target.CrateName()
	}
	root, err := defs.FindRoot(d.Index, crate)
	if err != nil {
		return nil, err
	}
	return &Result{Crate: crate, Root: root, Source: d.Index, Inputs: inputs}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
