package render

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/doxidize/internal/defs"
	"git.home.luguber.info/inful/doxidize/internal/frontmatter"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
	"git.home.luguber.info/inful/doxidize/internal/pathmap"
	"git.home.luguber.info/inful/doxidize/internal/templates"
	"git.home.luguber.info/inful/doxidize/internal/walker"
)

// TemplateFor returns the template that renders definitions of kind k.
// Kinds without a page report false.
func TemplateFor(k defs.Kind) (string, bool) {
	switch k {
	case defs.KindModule:
		return templates.Module, true
	case defs.KindStruct:
		return templates.Struct, true
	case defs.KindEnum:
		return templates.Enum, true
	case defs.KindTrait:
		return templates.Trait, true
	case defs.KindFunction:
		return templates.Function, true
	case defs.KindTypeAlias:
		return templates.Type, true
	case defs.KindStatic:
		return templates.Static, true
	case defs.KindConst:
		return templates.Const, true
	case defs.KindField, defs.KindTuple, defs.KindLocal, defs.KindOther:
		return "", false
	default:
		return "", false
	}
}

// RenderAPI writes the API reference of the crate rooted at res.Root: the
// crate README, one page per documentable definition in res.Order and the
// module, struct and trait overviews. Unless Options.MarkdownOnly is set
// every markdown file is rendered to public/api right away.
func (r *Renderer) RenderAPI(src defs.Source, crate string, res *walker.Result) error {
	apiDir := r.opts.Paths.APIDir()
	if err := r.ensureDir(apiDir, apiDir); err != nil {
		return err
	}

	root, err := src.GetDef(res.Root)
	if err != nil {
		return err
	}
	readme, err := r.engine.Render(templates.API, map[string]any{
		"Name":      crate,
		"QualName":  root.QualName,
		"Docs":      defs.StripLeadingSpace(root.Docs),
		"Signature": root.Signature,
		"NestCount": pathmap.NestingDepth("api/index.html", r.opts.BasePath),
		"BasePath":  r.opts.BasePath,
	})
	if err != nil {
		return err
	}
	if err := r.emitAPI(r.opts.Paths.APIReadme(), crate, readme); err != nil {
		return err
	}

	for _, id := range res.Order {
		def, err := src.GetDef(id)
		if err != nil {
			return err
		}
		// The template is chosen before any directory is created so that
		// skipped kinds leave nothing behind.
		name, ok := TemplateFor(def.Kind)
		if !ok {
			continue
		}
		rel := filepath.Join(pathmap.DefinitionDir(def.QualName), def.Name+".md")
		out, err := r.engine.Render(name, map[string]any{
			"Name":      def.Name,
			"QualName":  def.QualName,
			"Docs":      defs.StripLeadingSpace(def.Docs),
			"Signature": def.Signature,
			"NestCount": pathmap.NestingDepth(filepath.Join("api", pathmap.MarkdownOutputPath(rel)), r.opts.BasePath),
			"BasePath":  r.opts.BasePath,
		})
		if err != nil {
			return fmt.Errorf("render %s %s: %w", def.Kind, def.QualName, err)
		}
		if err := r.emitAPI(filepath.Join(apiDir, rel), def.Name, out); err != nil {
			return err
		}
		r.stats.Definitions++
	}

	return r.renderOverviews(src, res)
}

// emitAPI writes target, a markdown file under docs/api, and for full builds
// its HTML page.
func (r *Renderer) emitAPI(target, title, content string) error {
	apiDir := r.opts.Paths.APIDir()
	rel, err := filepath.Rel(apiDir, target)
	if err != nil {
		return err
	}
	if err := r.writeFile(apiDir, target, []byte(content)); err != nil {
		return err
	}
	id := filepath.ToSlash(filepath.Join("api", strings.TrimSuffix(rel, ".md")))
	r.titles[id] = title
	if r.opts.MarkdownOnly {
		return nil
	}
	outputRel := filepath.Join("api", pathmap.MarkdownOutputPath(rel))
	return r.writePage(outputRel, title, &frontmatter.Document{Body: []byte(content)})
}

func (r *Renderer) renderOverviews(src defs.Source, res *walker.Result) error {
	tree, err := walker.ModuleTree(src, res)
	if err != nil {
		return err
	}
	var mods strings.Builder
	mods.WriteString("# Module overview\n\n")
	tree.Walk(func(node *walker.Tree, depth int) {
		fmt.Fprintf(&mods, "%s* %s\n", strings.Repeat("  ", depth), pathmap.LinkForDef(r.opts.BasePath, node.Def))
	})

	groups := []struct {
		target, title string
		ids           []defs.ID
	}{
		{target: r.opts.Paths.StructOverview(), title: "Struct overview", ids: res.Structs},
		{target: r.opts.Paths.TraitOverview(), title: "Trait overview", ids: res.Traits},
	}

	if err := r.emitAPI(r.opts.Paths.ModuleOverview(), "Module overview", mods.String()); err != nil {
		return err
	}
	for _, g := range groups {
		sorted, err := walker.SortedGroup(src, g.ids)
		if err != nil {
			return err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", g.title)
		for _, d := range sorted {
			fmt.Fprintf(&b, "* %s\n", pathmap.LinkForDef(r.opts.BasePath, d))
		}
		if err := r.emitAPI(g.target, g.title, b.String()); err != nil {
			return err
		}
	}
	slog.Debug("Rendered API overviews", logfields.Path(r.opts.Paths.APIDir()))
	return nil
}
