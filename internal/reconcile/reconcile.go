// Package reconcile removes the artifacts a previous build produced that the
// current build no longer does.
package reconcile

import (
	"cmp"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/doxidize/internal/artifacts"
	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
)

// Result lists what a reconciliation removed.
type Result struct {
	Files []string
	Dirs  []string
	// Kept are orphan directories left in place because they still hold
	// files no build produced.
	Kept []string
}

// Deleted is the number of removed paths.
func (r *Result) Deleted() int { return len(r.Files) + len(r.Dirs) }

// Run deletes previous − current. Orphan files go first; orphan directories
// are removed afterwards, deepest first, and only when empty. A path that is
// already gone counts as deleted.
func Run(previous, current *artifacts.Set) (*Result, error) {
	orphans := previous.Difference(current)
	res := &Result{}

	for _, f := range orphans.Files() {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return res, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to delete orphan file").
				WithContext("file", f).
				Build()
		}
		slog.Debug("Deleted orphan", logfields.File(f))
		res.Files = append(res.Files, f)
	}

	dirs := orphans.Dirs()
	slices.SortFunc(dirs, func(a, b string) int {
		if c := cmp.Compare(depth(b), depth(a)); c != 0 {
			return c
		}
		return cmp.Compare(b, a)
	})
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if errors.Is(err, fs.ErrNotExist) {
			res.Dirs = append(res.Dirs, d)
			continue
		}
		if err != nil {
			return res, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to inspect orphan directory").
				WithContext("dir", d).
				Build()
		}
		if len(entries) > 0 {
			slog.Debug("Keeping non-empty orphan directory", logfields.Dir(d))
			res.Kept = append(res.Kept, d)
			continue
		}
		if err := os.Remove(d); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return res, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to delete orphan directory").
				WithContext("dir", d).
				Build()
		}
		slog.Debug("Deleted orphan", logfields.Dir(d))
		res.Dirs = append(res.Dirs, d)
	}
	return res, nil
}

func depth(p string) int {
	return strings.Count(filepath.Clean(p), string(filepath.Separator))
}

// Walk re-derives an artifact set from disk: every file below root with one
// of the given extensions plus every directory, root included. It stands in
// for the previous set when no manifest was recorded. A missing root yields
// an empty set.
func Walk(root string, exts ...string) (*artifacts.Set, error) {
	set := artifacts.New()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			set.AddDir(path)
			return nil
		}
		if slices.Contains(exts, filepath.Ext(path)) {
			set.AddFile(path)
		}
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to scan previous output").
			WithContext("dir", root).
			Build()
	}
	return set, nil
}
