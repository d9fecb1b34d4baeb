// Package templates holds the page templates and the engine that renders them.
//
// Every template is a text/template file. The defaults are embedded; a
// project can override any of them by placing <name>.tmpl in its templates
// directory.
package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/pathmap"
)

//go:embed defaults/*.tmpl
var defaultFS embed.FS

// Template names.
const (
	API      = "api"
	Module   = "mod"
	Struct   = "struct"
	Enum     = "enum"
	Trait    = "trait"
	Function = "function"
	Type     = "type"
	Static   = "static"
	Const    = "const"
	Example  = "example"
	Page     = "page"
)

// Engine renders named templates.
type Engine struct {
	set *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"upDir": pathmap.UpDir,
	}
}

// New parses the embedded templates, then the *.tmpl files of overrideDir
// (when non-empty), which replace embedded templates of the same name.
func New(overrideDir string) (*Engine, error) {
	root := template.New("doxidize").Funcs(funcs()).Option("missingkey=error")

	if err := addFS(root, defaultFS, "defaults"); err != nil {
		return nil, err
	}
	if overrideDir != "" {
		if _, err := os.Stat(overrideDir); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "template directory is not readable").
				WithContext("dir", overrideDir).
				Build()
		}
		if err := addFS(root, os.DirFS(overrideDir), "."); err != nil {
			return nil, err
		}
	}
	return &Engine{set: root}, nil
}

func addFS(root *template.Template, fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryTemplate, "failed to list templates").
			WithContext("dir", dir).
			Build()
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".tmpl" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".tmpl")
		body, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, e.Name())))
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryTemplate, "failed to read template").
				WithContext("template", name).
				Build()
		}
		if _, err := root.New(name).Parse(string(body)); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryTemplate, fmt.Sprintf("failed to parse template %q", name)).
				WithContext("template", name).
				Build()
		}
	}
	return nil
}

// Has reports whether a template with the given name is registered.
func (e *Engine) Has(name string) bool {
	return e.set.Lookup(name) != nil
}

// Render executes the named template with data.
func (e *Engine) Render(name string, data map[string]any) (string, error) {
	tpl := e.set.Lookup(name)
	if tpl == nil {
		return "", ferrors.WrapError(errUnknownTemplate, ferrors.CategoryTemplate, fmt.Sprintf("template %q is not registered", name)).
			WithContext("template", name).
			Build()
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryTemplate, fmt.Sprintf("failed to render template %q", name)).
			WithContext("template", name).
			Build()
	}
	return buf.String(), nil
}

var errUnknownTemplate = errors.New("unknown template")
