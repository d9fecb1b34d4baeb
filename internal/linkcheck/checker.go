package linkcheck

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
	"git.home.luguber.info/inful/doxidize/internal/pathmap"
)

// Broken is a link whose target does not exist.
type Broken struct {
	// Page is the slash-separated path of the page below the output root.
	Page string
	URL  string
}

// Report summarises one check.
type Report struct {
	Pages  int
	Links  int
	Broken []Broken
}

// Err returns a validation error listing the broken links, or nil.
func (r *Report) Err() error {
	if len(r.Broken) == 0 {
		return nil
	}
	lines := make([]string, 0, len(r.Broken))
	for _, b := range r.Broken {
		lines = append(lines, b.Page+": "+b.URL)
	}
	return ferrors.ValidationError(fmt.Sprintf("%d broken link(s)", len(r.Broken))).
		WithContext("links", strings.Join(lines, "; ")).
		Build()
}

// Check parses every *.html below root and resolves its local links.
// Root-relative links must start with the base path when one is set.
func Check(root, base string) (*Report, error) {
	base = pathmap.NormalizeBase(base)
	report := &Report{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".html" {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		page := filepath.ToSlash(rel)
		links, err := ExtractLinks(p)
		if err != nil {
			return err
		}
		report.Pages++
		for _, l := range links {
			if !isLocal(l.URL) {
				continue
			}
			report.Links++
			if !resolves(root, base, page, l.URL) {
				slog.Debug("Broken link", logfields.File(page), logfields.URL(l.URL))
				report.Broken = append(report.Broken, Broken{Page: page, URL: l.URL})
			}
		}
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to check links").
			WithContext("dir", root).
			Build()
	}
	sort.Slice(report.Broken, func(i, j int) bool {
		if report.Broken[i].Page != report.Broken[j].Page {
			return report.Broken[i].Page < report.Broken[j].Page
		}
		return report.Broken[i].URL < report.Broken[j].URL
	})
	return report, nil
}

// resolves reports whether link, found on page, names a file below root.
// Links are resolved in URL space, where the site lives below /<base>/.
func resolves(root, base, page, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	target := u.Path
	if target == "" {
		// Query only links point at the page itself.
		return true
	}

	prefix := pathmap.SiteRoot(base)
	if !strings.HasPrefix(target, "/") {
		target = path.Join(path.Dir(prefix+"/"+page), target)
	}
	target = path.Clean(target)
	if prefix != "" {
		rest, ok := strings.CutPrefix(target, prefix)
		if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
			return false
		}
		target = rest
	}
	target = strings.TrimPrefix(target, "/")

	full := filepath.Join(root, filepath.FromSlash(target))
	st, err := os.Stat(full)
	if err != nil {
		return false
	}
	if st.IsDir() {
		_, err := os.Stat(filepath.Join(full, "index.html"))
		return err == nil
	}
	return true
}
