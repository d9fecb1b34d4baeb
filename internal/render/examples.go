package render

import (
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/templates"
)

// RenderExamples turns every examples/*.rs file into docs/examples/<stem>.md.
// A project without an examples directory renders nothing.
func (r *Renderer) RenderExamples() error {
	srcDir := r.opts.Paths.ExamplesDir()
	entries, err := os.ReadDir(srcDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to list examples").
			WithContext("dir", srcDir).
			Build()
	}

	outDir := r.opts.Paths.ExamplesDocs()
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".rs" {
			continue
		}
		code, err := os.ReadFile(filepath.Join(srcDir, e.Name()))
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read example").
				WithContext("file", e.Name()).
				Build()
		}
		out, err := r.engine.Render(templates.Example, map[string]any{
			"Name": e.Name(),
			"Code": string(code),
		})
		if err != nil {
			return err
		}
		stem := strings.TrimSuffix(e.Name(), ".rs")
		if err := r.writeFile(outDir, filepath.Join(outDir, stem+".md"), []byte(out)); err != nil {
			return err
		}
		r.stats.Examples++
	}
	return nil
}
