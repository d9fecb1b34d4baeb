package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/doxidize/internal/docs"
	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/pathmap"
)

// ResolveTitles loads every markdown document and records its title for
// the menus. Call it before rendering any page so that menus on every page
// show the same labels.
func (r *Renderer) ResolveTitles(files []docs.DocFile) error {
	for i := range files {
		f := &files[i]
		if f.IsAsset {
			continue
		}
		if err := f.Load(); err != nil {
			return err
		}
		r.titles[f.ID] = r.titleFor(f)
	}
	return nil
}

// RenderDocuments renders every markdown document to public/ and copies
// the assets next to them.
func (r *Renderer) RenderDocuments(files []docs.DocFile) error {
	public := r.opts.Paths.PublicDir()
	if err := r.ensureDir(public, public); err != nil {
		return err
	}
	if err := r.ResolveTitles(files); err != nil {
		return err
	}

	for i := range files {
		f := &files[i]
		if f.IsAsset {
			if err := r.copyAsset(f); err != nil {
				return err
			}
			r.stats.Assets++
			continue
		}
		outputRel := pathmap.MarkdownOutputPath(f.RelativePath)
		if err := r.writePage(outputRel, r.titles[f.ID], f.Doc); err != nil {
			return err
		}
		r.stats.Documents++
	}
	return nil
}

// titleFor prefers the frontmatter title, then the first level-one heading,
// then the file name.
func (r *Renderer) titleFor(f *docs.DocFile) string {
	if f.Doc.Meta.Title != "" {
		return f.Doc.Meta.Title
	}
	if h := r.md.FirstHeading(f.Doc.Body); h != "" {
		return h
	}
	return f.Name
}

func (r *Renderer) copyAsset(f *docs.DocFile) error {
	public := r.opts.Paths.PublicDir()
	dst := filepath.Join(public, f.RelativePath)
	if err := r.ensureDir(public, filepath.Dir(dst)); err != nil {
		return err
	}
	if err := copyFile(f.Path, dst); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, fmt.Sprintf("failed to copy asset %s", f.RelativePath)).
			WithContext("file", f.Path).
			Build()
	}
	r.set.AddFile(dst)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
