package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// FileAssertions checks files below a directory. Every method takes a
// slash-separated path relative to that directory and returns the receiver
// so checks can be chained.
type FileAssertions struct {
	t    *testing.T
	root string
}

// NewFileAssertions roots assertions at dir.
func NewFileAssertions(t *testing.T, dir string) *FileAssertions {
	return &FileAssertions{t: t, root: dir}
}

func (fa *FileAssertions) path(rel string) string {
	return filepath.Join(fa.root, filepath.FromSlash(rel))
}

func (fa *FileAssertions) AssertFileExists(rel string) *FileAssertions {
	fa.t.Helper()
	assert.FileExists(fa.t, fa.path(rel))
	return fa
}

// AssertFileNotExists also fails when rel is a directory.
func (fa *FileAssertions) AssertFileNotExists(rel string) *FileAssertions {
	fa.t.Helper()
	_, err := os.Stat(fa.path(rel))
	assert.True(fa.t, os.IsNotExist(err), "%s should not exist", rel)
	return fa
}

func (fa *FileAssertions) AssertDirExists(rel string) *FileAssertions {
	fa.t.Helper()
	assert.DirExists(fa.t, fa.path(rel))
	return fa
}

func (fa *FileAssertions) AssertFileContains(rel, want string) *FileAssertions {
	fa.t.Helper()
	if got, ok := fa.read(rel); ok {
		assert.Contains(fa.t, got, want, "content of %s", rel)
	}
	return fa
}

func (fa *FileAssertions) AssertFileEquals(rel, want string) *FileAssertions {
	fa.t.Helper()
	if got, ok := fa.read(rel); ok {
		assert.Equal(fa.t, want, got, "content of %s", rel)
	}
	return fa
}

func (fa *FileAssertions) read(rel string) (string, bool) {
	fa.t.Helper()
	data, err := os.ReadFile(fa.path(rel))
	if !assert.NoError(fa.t, err, "read %s", rel) {
		return "", false
	}
	return string(data), true
}
