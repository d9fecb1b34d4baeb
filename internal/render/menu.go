package render

import (
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/doxidize/internal/pathmap"
)

// MenuLink is one entry of a rendered menu section.
type MenuLink struct {
	Title string
	Href  string
}

// MenuSection is a titled group of links as the page template sees it.
type MenuSection struct {
	Title string
	Links []MenuLink
}

// menu resolves the configured page ids to links relative to the site root.
// Ids of documents seen by this pass use their page title.
func (r *Renderer) menu() []MenuSection {
	if len(r.opts.Menu) == 0 {
		return nil
	}
	out := make([]MenuSection, 0, len(r.opts.Menu))
	for _, entry := range r.opts.Menu {
		sec := MenuSection{Title: entry.Title}
		for _, id := range entry.Pages {
			title, ok := r.titles[id]
			if !ok {
				title = path.Base(id)
			}
			sec.Links = append(sec.Links, MenuLink{
				Title: title,
				Href:  filepath.ToSlash(pathmap.MarkdownOutputPath(filepath.FromSlash(id + ".md"))),
			})
		}
		out = append(out, sec)
	}
	return out
}
