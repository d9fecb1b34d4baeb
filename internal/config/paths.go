package config

import "path/filepath"

// Paths derives every project location from the crate manifest.
type Paths struct {
	Manifest string
	Root     string
	output   string
}

// NewPaths anchors the project at the directory containing manifestPath.
// output is taken relative to the root unless it is absolute.
func NewPaths(manifestPath, output string) Paths {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		abs = manifestPath
	}
	root := filepath.Dir(abs)
	if output == "" {
		output = filepath.Join("target", "docs")
	}
	if !filepath.IsAbs(output) {
		output = filepath.Join(root, output)
	}
	return Paths{Manifest: abs, Root: root, output: output}
}

func (p Paths) ConfigFile() string     { return filepath.Join(p.Root, "Doxidize.toml") }
func (p Paths) DocsDir() string        { return filepath.Join(p.Root, "docs") }
func (p Paths) DocsReadme() string     { return filepath.Join(p.DocsDir(), "README.md") }
func (p Paths) MenuFile() string       { return filepath.Join(p.DocsDir(), "Menu.toml") }
func (p Paths) APIDir() string         { return filepath.Join(p.DocsDir(), "api") }
func (p Paths) APIReadme() string      { return filepath.Join(p.APIDir(), "README.md") }
func (p Paths) ModuleOverview() string { return filepath.Join(p.APIDir(), "module-overview.md") }
func (p Paths) StructOverview() string { return filepath.Join(p.APIDir(), "struct-overview.md") }
func (p Paths) TraitOverview() string  { return filepath.Join(p.APIDir(), "trait-overview.md") }
func (p Paths) ExamplesDir() string    { return filepath.Join(p.Root, "examples") }
func (p Paths) ExamplesDocs() string   { return filepath.Join(p.DocsDir(), "examples") }
func (p Paths) OutputDir() string      { return p.output }
func (p Paths) PublicDir() string      { return filepath.Join(p.output, "public") }
func (p Paths) StateDB() string        { return filepath.Join(p.Root, "target", "doxidize", "state.db") }

// TemplatesDir resolves a configured template override directory.
func (p Paths) TemplatesDir(configured string) string {
	if configured == "" || filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(p.Root, configured)
}
