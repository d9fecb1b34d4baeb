// Package render writes the markdown and HTML artifacts of a build pass and
// records every path it creates in an artifacts.Set.
package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/doxidize/internal/artifacts"
	"git.home.luguber.info/inful/doxidize/internal/config"
	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/frontmatter"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
	"git.home.luguber.info/inful/doxidize/internal/markdown"
	"git.home.luguber.info/inful/doxidize/internal/pathmap"
	"git.home.luguber.info/inful/doxidize/internal/templates"
)

// Options configures one render pass.
type Options struct {
	Paths      config.Paths
	BasePath   string
	Menu       []config.MenuEntry
	LiveReload bool

	// MarkdownOnly limits the definition pass to docs/api. init and update
	// set it to refresh the API sources without touching the site.
	MarkdownOnly bool
}

// Stats counts what a pass rendered.
type Stats struct {
	Documents   int
	Definitions int
	Assets      int
	Examples    int
}

// Renderer renders one build pass. It is not safe for concurrent use; a new
// Renderer is created for every pass while the converter (and its cache) is
// shared between passes.
type Renderer struct {
	engine *templates.Engine
	md     *markdown.Converter
	opts   Options

	set    *artifacts.Set
	titles map[string]string
	stats  Stats
}

// New returns a Renderer with an empty artifact set.
func New(engine *templates.Engine, md *markdown.Converter, opts Options) *Renderer {
	opts.BasePath = pathmap.NormalizeBase(opts.BasePath)
	return &Renderer{
		engine: engine,
		md:     md,
		opts:   opts,
		set:    artifacts.New(),
		titles: make(map[string]string),
	}
}

// Artifacts returns the paths written so far.
func (r *Renderer) Artifacts() *artifacts.Set { return r.set }


// Stats returns the counters of the pass.
func (r *Renderer) Stats() Stats { return r.stats }

// ensureDir creates dir and records it together with every directory
// between scopeRoot and dir.
func (r *Renderer) ensureDir(scopeRoot, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create directory").
			WithContext("dir", dir).
			Build()
	}
	rel, err := filepath.Rel(scopeRoot, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		r.set.AddDir(dir)
		return nil
	}
	cur := scopeRoot
	r.set.AddDir(cur)
	if rel == "." {
		return nil
	}
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, seg)
		r.set.AddDir(cur)
	}
	return nil
}

// writeFile writes content to path below scopeRoot and records it.
func (r *Renderer) writeFile(scopeRoot, path string, content []byte) error {
	if err := r.ensureDir(scopeRoot, filepath.Dir(path)); err != nil {
		return err
	}
	slog.Debug("Writing artifact", logfields.File(path))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write artifact").
			WithContext("file", path).
			Build()
	}
	r.set.AddFile(path)
	return nil
}

// writePage converts body to HTML, wraps it with the page template and
// writes it to public/<outputRel>.
func (r *Renderer) writePage(outputRel, title string, doc *frontmatter.Document) error {
	fp := doc.Fingerprint()
	contents := r.md.ToHTMLCached(fp, doc.Body)
	page, err := r.engine.Render(templates.Page, map[string]any{
		"Title":      title,
		"Contents":   contents,
		"NestCount":  pathmap.NestingDepth(outputRel, r.opts.BasePath),
		"BasePath":   r.opts.BasePath,
		"Menu":       r.menu(),
		"LiveReload": r.opts.LiveReload,
	})
	if err != nil {
		return fmt.Errorf("render page %s: %w", outputRel, err)
	}
	public := r.opts.Paths.PublicDir()
	dst := filepath.Join(public, outputRel)
	return r.writeFile(public, dst, []byte(page))
}
