package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/doxidize/internal/analysis"
	"git.home.luguber.info/inful/doxidize/internal/artifacts"
	"git.home.luguber.info/inful/doxidize/internal/config"
	"git.home.luguber.info/inful/doxidize/internal/docs"
	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
	"git.home.luguber.info/inful/doxidize/internal/manifest"
	"git.home.luguber.info/inful/doxidize/internal/markdown"
	"git.home.luguber.info/inful/doxidize/internal/metrics"
	"git.home.luguber.info/inful/doxidize/internal/reconcile"
	"git.home.luguber.info/inful/doxidize/internal/render"
	"git.home.luguber.info/inful/doxidize/internal/templates"
)

// Orchestrator runs build passes for one project. Passes must not overlap;
// the preview loop and the build command both call Run from a single
// goroutine.
type Orchestrator struct {
	project *config.Project
	engine  *templates.Engine
	md      *markdown.Converter

	loader     *analysis.Loader
	store      *manifest.Store
	recorder   metrics.Recorder
	liveReload bool

	mu    sync.Mutex
	state State
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder sets the metrics recorder. The default records nothing.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithLiveReload makes rendered pages include the live reload client.
func WithLiveReload(on bool) Option {
	return func(o *Orchestrator) { o.liveReload = on }
}

// WithLoader replaces the definition loader, e.g. to inject a fake cargo.
func WithLoader(l *analysis.Loader) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.loader = l
		}
	}
}

// WithStore records every successful pass in the manifest store and takes
// the previous artifact set from it.
func WithStore(s *manifest.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// New prepares the templates and the markdown converter shared by every
// pass of project.
func New(project *config.Project, opts ...Option) (*Orchestrator, error) {
	engine, err := templates.New(project.Paths.TemplatesDir(project.Config.Templates.Dir))
	if err != nil {
		return nil, err
	}
	md, err := markdown.NewConverter(markdown.DefaultCacheSize)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to create markdown converter").Build()
	}
	o := &Orchestrator{
		project:  project,
		engine:   engine,
		md:       md,
		loader:   analysis.NewLoader(nil),
		recorder: metrics.NoopRecorder{},
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// State returns the state of the current or last pass.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) transition(report *Report, s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	report.State = s
	slog.Debug("Build state changed", logfields.BuildID(report.BuildID), slog.String("state", string(s)))
}

// Run performs one pass: discover, analyze, render, reconcile. Any error
// aborts the pass and is returned together with a report whose Artifacts
// are nil.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		BuildID: uuid.NewString(),
		State:   StateIdle,
		Stages:  make(map[string]time.Duration),
		Start:   time.Now(),
	}
	o.transition(report, StateIdle)
	slog.Info("Build started", logfields.BuildID(report.BuildID), logfields.Path(o.project.Paths.Root))

	paths := o.project.Paths
	if _, err := os.Stat(paths.DocsDir()); err != nil {
		return o.finish(report, nil, ferrors.UninitializedError("project is not initialized; run `doxidize init` first").
			WithContext(ferrors.KeyLocation, paths.DocsDir()).
			WithContext(ferrors.KeyCommand, "build").
			Build())
	}

	o.transition(report, StateDiscovering)
	var (
		files []docs.DocFile
		menu  []config.MenuEntry
		crate *Definitions
	)
	err := o.stage(ctx, report, StageDiscover, func(context.Context) error {
		var err error
		if menu, err = o.project.Menu(); err != nil {
			return err
		}
		var skip []string
		if analysis.Enabled(o.project) {
			skip = append(skip, paths.APIDir())
		}
		files, err = docs.Discover(paths.DocsDir(), skip...)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDiscovery, err)
		}
		return nil
	})
	if err != nil {
		return o.finish(report, nil, err)
	}
	err = o.stage(ctx, report, StageAnalyze, func(ctx context.Context) error {
		var err error
		crate, err = LoadDefinitions(ctx, o.loader, o.project)
		return err
	})
	if err != nil {
		return o.finish(report, nil, err)
	}

	o.transition(report, StateRendering)
	r := render.New(o.engine, o.md, render.Options{
		Paths:      paths,
		BasePath:   o.project.Config.BasePath(),
		Menu:       menu,
		LiveReload: o.liveReload,
	})
	err = o.stage(ctx, report, StageRender, func(context.Context) error {
		if err := r.ResolveTitles(files); err != nil {
			return fmt.Errorf("%w: %w", ErrRender, err)
		}
		if crate != nil {
			if err := crate.Render(r); err != nil {
				return fmt.Errorf("%w: %w", ErrRender, err)
			}
		}
		if err := r.RenderDocuments(files); err != nil {
			return fmt.Errorf("%w: %w", ErrRender, err)
		}
		return nil
	})
	if err != nil {
		return o.finish(report, nil, err)
	}
	stats := r.Stats()
	report.Documents, report.Definitions, report.Assets = stats.Documents, stats.Definitions, stats.Assets

	err = o.stage(ctx, report, StageReconcile, func(ctx context.Context) error {
		return o.reconcile(ctx, report, r)
	})
	if err != nil {
		return o.finish(report, nil, err)
	}
	return o.finish(report, r.Artifacts(), nil)
}

// stage runs fn as the named stage, recording its duration and result.
// A canceled context stops the pass before the stage starts.
func (o *Orchestrator) stage(ctx context.Context, report *Report, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		o.recorder.IncStageResult(name, metrics.StageCanceled)
		return err
	}
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	report.Stages[name] = elapsed
	o.recorder.ObserveStageDuration(name, elapsed)

	switch {
	case err == nil:
		o.recorder.IncStageResult(name, metrics.StageSucceeded)
	case isCanceled(err):
		o.recorder.IncStageResult(name, metrics.StageCanceled)
	default:
		o.recorder.IncStageResult(name, metrics.StageFailed)
	}
	slog.Debug("Stage finished",
		logfields.BuildID(report.BuildID),
		logfields.Stage(name),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000),
		slog.Bool("ok", err == nil))
	return err
}

func (o *Orchestrator) reconcile(ctx context.Context, report *Report, r *render.Renderer) error {
	current := r.Artifacts()
	previous, err := o.previous(ctx)
	if err != nil {
		return err
	}
	res, err := reconcile.Run(previous, current)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReconcile, err)
	}
	report.Orphans = res.Deleted()
	o.recorder.AddArtifacts(manifest.ScopeSite, current.Len())
	o.recorder.AddOrphansDeleted(manifest.ScopeSite, res.Deleted())
	if res.Deleted() > 0 || len(res.Kept) > 0 {
		slog.Info("Removed stale artifacts",
			logfields.BuildID(report.BuildID),
			logfields.Orphans(res.Deleted()),
			slog.Int("kept_dirs", len(res.Kept)))
	}

	if o.store == nil {
		return nil
	}
	return o.store.Save(ctx, manifest.Record{
		Scope:     manifest.ScopeSite,
		BuildID:   report.BuildID,
		Timestamp: time.Now(),
		Artifacts: current,
	})
}

// previous is the artifact set of the last successful pass. Without a
// recorded manifest it is re-derived from the output tree.
func (o *Orchestrator) previous(ctx context.Context) (*artifacts.Set, error) {
	if o.store != nil {
		rec, ok, err := o.store.Previous(ctx, manifest.ScopeSite)
		if err != nil {
			return nil, err
		}
		if ok {
			return rec.Artifacts, nil
		}
	}
	set, err := reconcile.Walk(o.project.Paths.PublicDir(), ".html")
	if err != nil {
		return nil, err
	}
	if analysis.Enabled(o.project) {
		api, err := reconcile.Walk(o.project.Paths.APIDir(), ".md")
		if err != nil {
			return nil, err
		}
		set.Merge(api)
	}
	return set, nil
}

func (o *Orchestrator) finish(report *Report, set *artifacts.Set, err error) (*Report, error) {
	report.End = time.Now()
	switch {
	case err == nil:
		report.Outcome = OutcomeSuccess
		report.Artifacts = set
		o.transition(report, StateDone)
	case isCanceled(err):
		report.Outcome = OutcomeCanceled
		report.addError(err)
		o.transition(report, StateFailed)
	default:
		report.Outcome = OutcomeFailed
		report.addError(err)
		o.transition(report, StateFailed)
	}
	o.recorder.IncBuildOutcome(string(report.Outcome))
	o.recorder.ObserveBuildDuration(report.Duration())

	if err != nil {
		slog.Error("Build failed",
			logfields.BuildID(report.BuildID),
			slog.String("outcome", string(report.Outcome)),
			logfields.Error(err))
		return report, err
	}
	slog.Info("Build completed",
		logfields.BuildID(report.BuildID),
		slog.Int("documents", report.Documents),
		slog.Int("definitions", report.Definitions),
		logfields.Artifacts(set.Len()),
		logfields.DurationMS(float64(report.Duration().Microseconds())/1000))
	return report, nil
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
