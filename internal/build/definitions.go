package build

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/doxidize/internal/analysis"
	"git.home.luguber.info/inful/doxidize/internal/config"
	"git.home.luguber.info/inful/doxidize/internal/defs"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
	"git.home.luguber.info/inful/doxidize/internal/render"
	"git.home.luguber.info/inful/doxidize/internal/walker"
)

// Definitions is a loaded crate together with its breadth-first walk.
type Definitions struct {
	Crate  string
	Source defs.Source
	Walk   *walker.Result
	// Inputs are the files the definitions were read from.
	Inputs []string
}

// LoadDefinitions loads and walks the crate of p. It returns nil when the
// project documents no API.
func LoadDefinitions(ctx context.Context, loader *analysis.Loader, p *config.Project) (*Definitions, error) {
	res, err := loader.Load(ctx, p)
	if err != nil || res == nil {
		return nil, err
	}
	walk, err := walker.Walk(res.Source, res.Root)
	if err != nil {
		return nil, err
	}
	slog.Debug("Walked crate definitions",
		logfields.Name(res.Crate),
		slog.Int("definitions", len(walk.Order)),
		slog.Int("modules", len(walk.Modules)))
	return &Definitions{Crate: res.Crate, Source: res.Source, Walk: walk, Inputs: res.Inputs}, nil
}

// Render writes the API reference with r.
func (d *Definitions) Render(r *render.Renderer) error {
	return r.RenderAPI(d.Source, d.Crate, d.Walk)
}
