package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	dirMode  = 0o750
	fileMode = 0o600
)

const defaultManifest = `[package]
name = "demo"
version = "0.1.0"
edition = "2021"

[lib]
path = "src/lib.rs"
`

// ProjectBuilder lays out a crate with documentation sources in a
// temporary directory.
type ProjectBuilder struct {
	t     *testing.T
	root  string
	files map[string]string
}

// NewProjectBuilder creates a builder rooted in t.TempDir().
func NewProjectBuilder(t *testing.T) *ProjectBuilder {
	t.Helper()
	return &ProjectBuilder{
		t:     t,
		root:  t.TempDir(),
		files: map[string]string{"Cargo.toml": defaultManifest},
	}
}

// WithFile adds a file at a slash-separated path relative to the root.
func (pb *ProjectBuilder) WithFile(rel, content string) *ProjectBuilder {
	pb.files[rel] = content
	return pb
}

// WithDoc adds a source document below docs/.
func (pb *ProjectBuilder) WithDoc(rel, content string) *ProjectBuilder {
	return pb.WithFile("docs/"+rel, content)
}

// WithConfig writes Doxidize.toml.
func (pb *ProjectBuilder) WithConfig(toml string) *ProjectBuilder {
	return pb.WithFile("Doxidize.toml", toml)
}

// WithSource adds a crate source file below src/.
func (pb *ProjectBuilder) WithSource(rel, content string) *ProjectBuilder {
	return pb.WithFile("src/"+rel, content)
}

// WithExample adds examples/<name>.
func (pb *ProjectBuilder) WithExample(name, code string) *ProjectBuilder {
	return pb.WithFile("examples/"+name, code)
}

// Build writes every file and returns the path of Cargo.toml.
func (pb *ProjectBuilder) Build() string {
	pb.t.Helper()
	for rel, content := range pb.files {
		path := filepath.Join(pb.root, filepath.FromSlash(rel))
		require.NoError(pb.t, os.MkdirAll(filepath.Dir(path), dirMode))
		require.NoError(pb.t, os.WriteFile(path, []byte(content), fileMode), "write %s", rel)
	}
	return filepath.Join(pb.root, "Cargo.toml")
}

// Root returns the project directory.
func (pb *ProjectBuilder) Root() string { return pb.root }

// Assert returns file assertions rooted at the project directory.
func (pb *ProjectBuilder) Assert() *FileAssertions {
	return NewFileAssertions(pb.t, pb.root)
}
