// Package docs discovers the hand-written source documents of a project.
package docs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/frontmatter"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
)

// Sentinels wrapped into the classified errors of this package.
var (
	ErrWalk        = errors.New("walk documentation directory")
	ErrRead        = errors.New("read document")
	ErrFrontmatter = errors.New("invalid frontmatter")
)

// Files copied into the site as they are.
var assetExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".webp": true, ".ico": true, ".pdf": true, ".css": true, ".js": true,
}

// DocFile is a markdown document or an asset below docs/.
type DocFile struct {
	Path         string // absolute
	RelativePath string // relative to docs/, OS separators
	ID           string // slash-separated RelativePath without extension, as in Menu.toml
	Name         string // base name without extension
	IsAsset      bool

	Doc *frontmatter.Document // set by Load; stays nil for assets
}

// Discover lists the documents and assets below docsDir in lexical order.
// Dot entries and the directories in skip are left out.
func Discover(docsDir string, skip ...string) ([]DocFile, error) {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[filepath.Clean(s)] = true
	}

	var files []DocFile
	walk := func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case path == docsDir:
			return nil
		case strings.HasPrefix(d.Name(), "."), d.IsDir() && skipped[filepath.Clean(path)]:
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		case d.IsDir():
			return nil
		}

		f, ok := classify(docsDir, path)
		if !ok {
			return nil
		}
		files = append(files, f)
		slog.Debug("Discovered file", logfields.File(f.RelativePath), slog.Bool("asset", f.IsAsset))
		return nil
	}
	if err := filepath.WalkDir(docsDir, walk); err != nil {
		return nil, ferrors.WrapError(fmt.Errorf("%w: %w", ErrWalk, err), ferrors.CategoryFileSystem, "failed to discover documents").
			WithContext("dir", docsDir).
			Build()
	}
	return files, nil
}

func classify(docsDir, path string) (DocFile, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	asset := assetExts[ext]
	if ext != ".md" && !asset {
		return DocFile{}, false
	}
	// path comes from walking docsDir, so Rel cannot fail.
	rel, _ := filepath.Rel(docsDir, path)
	return DocFile{
		Path:         path,
		RelativePath: rel,
		ID:           filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel))),
		Name:         strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		IsAsset:      asset,
	}, true
}

// Load reads and parses a document once. It does nothing for assets.
func (df *DocFile) Load() error {
	if df.IsAsset || df.Doc != nil {
		return nil
	}
	content, err := os.ReadFile(df.Path)
	if err != nil {
		return ferrors.WrapError(fmt.Errorf("%w: %w", ErrRead, err), ferrors.CategoryFileSystem, "failed to read document").
			WithContext("file", df.Path).
			Build()
	}
	doc, err := frontmatter.Parse(content)
	if err != nil {
		return ferrors.WrapError(fmt.Errorf("%w: %w", ErrFrontmatter, err), ferrors.CategoryValidation, "failed to parse document").
			WithContext("file", df.Path).
			Build()
	}
	df.Doc = doc
	return nil
}
