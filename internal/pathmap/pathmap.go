// Package pathmap maps sources and definitions to output locations.
package pathmap

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/doxidize/internal/defs"
)

// QualSeparator separates the segments of a qualified name.
const QualSeparator = "::"

// MarkdownOutputPath maps a docs-relative markdown path to its output path.
// README.md becomes index.html in the same directory.
func MarkdownOutputPath(rel string) string {
	dir, file := filepath.Split(rel)
	if file == "README.md" {
		return dir + "index.html"
	}
	return dir + strings.TrimSuffix(file, filepath.Ext(file)) + ".html"
}

// DefinitionDir returns the directory, relative to the API root, that holds
// the page of the definition with the given qualified name. The crate
// segment and the item's own name are dropped.
func DefinitionDir(qualName string) string {
	segs := strings.Split(qualName, QualSeparator)
	if len(segs) <= 2 {
		return ""
	}
	return filepath.Join(segs[1 : len(segs)-1]...)
}

// NestingDepth returns how many directories below the site root the page at
// the output-relative path sits. A non-empty base path adds one level.
func NestingDepth(outputRel string, basePath string) int {
	depth := 0
	dir := filepath.ToSlash(filepath.Dir(outputRel))
	if dir != "." && dir != "/" && dir != "" {
		depth = len(strings.Split(strings.Trim(dir, "/"), "/"))
	}
	if NormalizeBase(basePath) != "" {
		depth++
	}
	return depth
}

// UpDir returns "../" repeated n times.
func UpDir(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("../", n)
}

// NormalizeBase trims surrounding slashes from a base path.
func NormalizeBase(base string) string {
	return strings.Trim(base, "/")
}

// SiteRoot returns the root-relative URL prefix of the site, "" when no base
// path is configured and "/<base>" otherwise.
func SiteRoot(base string) string {
	if b := NormalizeBase(base); b != "" {
		return "/" + b
	}
	return ""
}

// LinkForDef returns a markdown link to the API page of d, relative to the
// documentation root. A definition with an empty name is the crate root and
// links to the API index under the crate's name.
func LinkForDef(base string, d defs.Definition) string {
	root := SiteRoot(base)
	if d.Name == "" {
		crate, _, _ := strings.Cut(d.QualName, QualSeparator)
		return fmt.Sprintf("[%s](%s/api/index.html)", crate, root)
	}
	dir := filepath.ToSlash(DefinitionDir(d.QualName))
	return fmt.Sprintf("[%s](%s)", d.Name, root+"/"+path.Join("api", dir, d.Name+".html"))
}
