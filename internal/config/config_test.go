package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "Doxidize.toml"))
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Docs.BaseURL)
	assert.Equal(t, filepath.Join("target", "docs"), cfg.Output.Dir)
	assert.Equal(t, BackendTreeSitter, cfg.Analysis.Backend)
	assert.Equal(t, "127.0.0.1:7878", cfg.Serve.Addr)
	assert.Equal(t, 300*time.Millisecond, cfg.Serve.Debounce)
	assert.Equal(t, "gh-pages", cfg.Publish.Branch)
	assert.Equal(t, "doxidize.builds", cfg.Notify.Subject)
}

func TestLoad_ReadsToml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Doxidize.toml")
	writeFile(t, path, `
[docs]
base-url = "/my-crate/"

[analysis]
backend = "dump"
dump = "defs.json.zst"

[serve]
addr = "127.0.0.1:9000"
debounce = "1s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "my-crate", cfg.BasePath())
	assert.Equal(t, BackendDump, cfg.Analysis.Backend)
	assert.Equal(t, "defs.json.zst", cfg.Analysis.Dump)
	assert.Equal(t, "127.0.0.1:9000", cfg.Serve.Addr)
	assert.Equal(t, time.Second, cfg.Serve.Debounce)
}

func TestLoad_EmptyFileIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Doxidize.toml")
	writeFile(t, path, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendTreeSitter, cfg.Analysis.Backend)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DOXIDIZE_DOCS_BASE_URL", "from-env")
	t.Setenv("DOXIDIZE_ANALYSIS_BACKEND", "dump")
	t.Setenv("DOXIDIZE_ANALYSIS_COMMAND", "my-tool --json")

	cfg, err := Load(filepath.Join(t.TempDir(), "Doxidize.toml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Docs.BaseURL)
	assert.Equal(t, []string{"my-tool", "--json"}, cfg.Analysis.Command)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "DOXIDIZE_PUBLISH_BRANCH=pages-from-dotenv\n")
	t.Cleanup(func() { _ = os.Unsetenv("DOXIDIZE_PUBLISH_BRANCH") })

	cfg, err := Load(filepath.Join(dir, "Doxidize.toml"))
	require.NoError(t, err)
	assert.Equal(t, "pages-from-dotenv", cfg.Publish.Branch)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown backend":   "[analysis]\nbackend = \"rls\"\n",
		"dump without path": "[analysis]\nbackend = \"dump\"\n",
		"broken toml":       "[docs\nbase-url = 1",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "Doxidize.toml")
			writeFile(t, path, content)
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
		})
	}
}

func TestLoad_BackendAliases(t *testing.T) {
	tests := map[string]string{
		"Tree-Sitter": BackendTreeSitter,
		"source":      BackendTreeSitter,
		" NONE ":      BackendNone,
		"off":         BackendNone,
	}
	for raw, want := range tests {
		t.Run(raw, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "Doxidize.toml")
			writeFile(t, path, "[analysis]\nbackend = \""+raw+"\"\n")
			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, want, cfg.Analysis.Backend)
		})
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Doxidize.toml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Docs.BaseURL)

	// an existing file is not overwritten
	writeFile(t, path, "[docs]\nbase-url = \"keep\"\n")
	require.NoError(t, WriteDefault(path))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "keep", cfg.Docs.BaseURL)
}

func TestLoadMenu(t *testing.T) {
	dir := t.TempDir()

	entries, err := LoadMenu(filepath.Join(dir, "Menu.toml"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	path := filepath.Join(dir, "Menu.toml")
	writeFile(t, path, "")
	entries, err = LoadMenu(path)
	require.NoError(t, err)
	assert.Empty(t, entries)

	writeFile(t, path, `
[[section]]
title = "Guides"
pages = ["README", "guide"]

[[section]]
title = "Reference"
pages = ["api/module-overview"]
`)
	entries, err = LoadMenu(path)
	require.NoError(t, err)
	assert.Equal(t, []MenuEntry{
		{Title: "Guides", Pages: []string{"README", "guide"}},
		{Title: "Reference", Pages: []string{"api/module-overview"}},
	}, entries)
}

func TestPaths(t *testing.T) {
	root := t.TempDir()
	p := NewPaths(filepath.Join(root, "Cargo.toml"), "")

	assert.Equal(t, root, p.Root)
	api := filepath.Join(root, "docs", "api")
	assert.Equal(t, filepath.Join(api, "README.md"), p.APIReadme())
	assert.Equal(t, filepath.Join(api, "module-overview.md"), p.ModuleOverview())
	assert.Equal(t, filepath.Join(api, "struct-overview.md"), p.StructOverview())
	assert.Equal(t, filepath.Join(api, "trait-overview.md"), p.TraitOverview())
	assert.Equal(t, filepath.Join(root, "target", "docs", "public"), p.PublicDir())
	assert.Equal(t, filepath.Join(root, "docs", "examples"), p.ExamplesDocs())

	custom := NewPaths(filepath.Join(root, "Cargo.toml"), "site")
	assert.Equal(t, filepath.Join(root, "site"), custom.OutputDir())
	assert.Equal(t, filepath.Join(root, "tpl"), custom.TemplatesDir("tpl"))
	assert.Equal(t, "", custom.TemplatesDir(""))
}

func TestLoadProject_OutputOverride(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Doxidize.toml"), "[output]\ndir = \"from-config\"\n")

	proj, err := LoadProject(filepath.Join(root, "Cargo.toml"), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "from-config"), proj.Paths.OutputDir())

	proj, err = LoadProject(filepath.Join(root, "Cargo.toml"), filepath.Join(root, "flag"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "flag"), proj.Paths.OutputDir())
}
