// Package scaffold lays out a new documentation tree and refreshes its
// generated parts.
package scaffold

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/doxidize/internal/analysis"
	"git.home.luguber.info/inful/doxidize/internal/artifacts"
	"git.home.luguber.info/inful/doxidize/internal/build"
	"git.home.luguber.info/inful/doxidize/internal/config"
	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
	"git.home.luguber.info/inful/doxidize/internal/manifest"
	"git.home.luguber.info/inful/doxidize/internal/markdown"
	"git.home.luguber.info/inful/doxidize/internal/reconcile"
	"git.home.luguber.info/inful/doxidize/internal/render"
	"git.home.luguber.info/inful/doxidize/internal/templates"
)

// Result summarises an init or update.
type Result struct {
	BuildID     string
	Definitions int
	Examples    int
	Orphans     int
}

// Scaffolder runs init and update for one project.
type Scaffolder struct {
	project *config.Project
	engine  *templates.Engine
	md      *markdown.Converter
	loader  *analysis.Loader
	store   *manifest.Store
}

// Option configures a Scaffolder.
type Option func(*Scaffolder)

// WithLoader replaces the definition loader.
func WithLoader(l *analysis.Loader) Option {
	return func(s *Scaffolder) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithStore records the generated sets and takes the previous ones from s.
func WithStore(st *manifest.Store) Option {
	return func(s *Scaffolder) { s.store = st }
}

// New returns a Scaffolder for project.
func New(project *config.Project, opts ...Option) (*Scaffolder, error) {
	engine, err := templates.New(project.Paths.TemplatesDir(project.Config.Templates.Dir))
	if err != nil {
		return nil, err
	}
	md, err := markdown.NewConverter(markdown.DefaultCacheSize)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to create markdown converter").Build()
	}
	s := &Scaffolder{project: project, engine: engine, md: md, loader: analysis.NewLoader(nil)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Init creates docs/, its README and menu, and Doxidize.toml, then
// generates the example and API sources. An existing docs/ is an error
// unless force is set; forced runs keep files the user already has.
func (s *Scaffolder) Init(ctx context.Context, force bool) (*Result, error) {
	paths := s.project.Paths
	if _, err := os.Stat(paths.DocsDir()); err == nil && !force {
		return nil, ferrors.AlreadyExistsError("documentation already initialized").
			WithContext(ferrors.KeyLocation, paths.DocsDir()).
			WithContext(ferrors.KeyHint, "use --force to regenerate").
			Build()
	}
	if err := os.MkdirAll(paths.DocsDir(), 0o755); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create docs directory").
			WithContext("dir", paths.DocsDir()).
			Build()
	}
	for _, f := range []string{paths.DocsReadme(), paths.MenuFile()} {
		if err := createEmpty(f); err != nil {
			return nil, err
		}
	}
	if err := config.WriteDefault(paths.ConfigFile()); err != nil {
		return nil, err
	}
	slog.Info("Created documentation layout", logfields.Dir(paths.DocsDir()))
	return s.refresh(ctx, "init")
}

// Update regenerates the example and API sources and removes what the
// previous run generated but this one did not.
func (s *Scaffolder) Update(ctx context.Context) (*Result, error) {
	required := s.project.Paths.DocsDir()
	if analysis.Enabled(s.project) {
		required = s.project.Paths.APIDir()
	}
	if _, err := os.Stat(required); err != nil {
		return nil, ferrors.UninitializedError("project is not initialized; run `doxidize init` first").
			WithContext(ferrors.KeyLocation, required).
			WithContext(ferrors.KeyCommand, "update").
			Build()
	}
	return s.refresh(ctx, "update")
}

func (s *Scaffolder) refresh(ctx context.Context, command string) (*Result, error) {
	res := &Result{BuildID: uuid.NewString()}
	opts := render.Options{
		Paths:        s.project.Paths,
		BasePath:     s.project.Config.BasePath(),
		MarkdownOnly: true,
	}

	examples := render.New(s.engine, s.md, opts)
	if err := examples.RenderExamples(); err != nil {
		return nil, err
	}
	res.Examples = examples.Stats().Examples
	n, err := s.reconcile(ctx, res.BuildID, manifest.ScopeExamples, s.project.Paths.ExamplesDocs(), examples)
	if err != nil {
		return nil, err
	}
	res.Orphans += n

	crate, err := build.LoadDefinitions(ctx, s.loader, s.project)
	if err != nil {
		return nil, err
	}
	if crate != nil {
		api := render.New(s.engine, s.md, opts)
		if err := crate.Render(api); err != nil {
			return nil, err
		}
		res.Definitions = api.Stats().Definitions
		n, err := s.reconcile(ctx, res.BuildID, manifest.ScopeAPI, s.project.Paths.APIDir(), api)
		if err != nil {
			return nil, err
		}
		res.Orphans += n
	}

	slog.Info("Generated documentation sources",
		logfields.Command(command),
		logfields.BuildID(res.BuildID),
		slog.Int("definitions", res.Definitions),
		slog.Int("examples", res.Examples),
		logfields.Orphans(res.Orphans))
	return res, nil
}

// reconcile deletes what the previous run of scope wrote below dir and r did
// not, then records r's set.
func (s *Scaffolder) reconcile(ctx context.Context, buildID, scope, dir string, r *render.Renderer) (int, error) {
	previous, err := s.previous(ctx, scope, dir)
	if err != nil {
		return 0, err
	}
	current := r.Artifacts()
	out, err := reconcile.Run(previous, current)
	if err != nil {
		return 0, err
	}
	if s.store != nil {
		err := s.store.Save(ctx, manifest.Record{
			Scope:     scope,
			BuildID:   buildID,
			Timestamp: time.Now(),
			Artifacts: current,
		})
		if err != nil {
			return 0, err
		}
	}
	return out.Deleted(), nil
}

func (s *Scaffolder) previous(ctx context.Context, scope, dir string) (*artifacts.Set, error) {
	if s.store != nil {
		rec, ok, err := s.store.Previous(ctx, scope)
		if err != nil {
			return nil, err
		}
		if ok {
			return rec.Artifacts, nil
		}
	}
	return reconcile.Walk(dir, ".md")
}

func createEmpty(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create file").
			WithContext("file", path).
			Build()
	}
	return f.Close()
}
