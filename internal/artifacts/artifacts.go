// Package artifacts records the files and directories a build pass produced.
package artifacts

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/doxidize/internal/util/sets"
)

// Set is the artifact set of one build pass. Paths are absolute and clean.
// The zero value is not usable; call New.
type Set struct {
	files sets.Set[string]
	dirs  sets.Set[string]
}

// New returns an empty set.
func New() *Set {
	return &Set{files: sets.New[string](), dirs: sets.New[string]()}
}

// AddFile records a written file.
func (s *Set) AddFile(path string) { s.files.Add(filepath.Clean(path)) }

// AddDir records a created or confirmed directory.
func (s *Set) AddDir(path string) { s.dirs.Add(filepath.Clean(path)) }

// Has reports whether path was recorded as a file or a directory.
func (s *Set) Has(path string) bool {
	p := filepath.Clean(path)
	return s.files.Has(p) || s.dirs.Has(p)
}

// IsDir reports whether path was recorded as a directory.
func (s *Set) IsDir(path string) bool { return s.dirs.Has(filepath.Clean(path)) }

// Len is the number of recorded paths.
func (s *Set) Len() int { return len(s.files) + len(s.dirs) }

// Files returns the recorded files in lexical order.
func (s *Set) Files() []string { return sets.Sorted(s.files) }

// Dirs returns the recorded directories in lexical order.
func (s *Set) Dirs() []string { return sets.Sorted(s.dirs) }

// Merge adds every path of other to s.
func (s *Set) Merge(other *Set) {
	s.files.Union(other.files)
	s.dirs.Union(other.dirs)
}

// Difference returns the paths of s that are not in other.
func (s *Set) Difference(other *Set) *Set {
	return &Set{
		files: s.files.Difference(other.files),
		dirs:  s.dirs.Difference(other.dirs),
	}
}

// Under returns the subset of paths at or below root.
func (s *Set) Under(root string) *Set {
	root = filepath.Clean(root)
	out := New()
	for f := range s.files {
		if within(root, f) {
			out.files.Add(f)
		}
	}
	for d := range s.dirs {
		if within(root, d) {
			out.dirs.Add(d)
		}
	}
	return out
}

func within(root, p string) bool {
	return p == root || strings.HasPrefix(p, root+string(filepath.Separator))
}
