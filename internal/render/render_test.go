package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doxidize/internal/config"
	"git.home.luguber.info/inful/doxidize/internal/defs"
	"git.home.luguber.info/inful/doxidize/internal/docs"
	"git.home.luguber.info/inful/doxidize/internal/markdown"
	"git.home.luguber.info/inful/doxidize/internal/templates"
	dxtesting "git.home.luguber.info/inful/doxidize/internal/testing"
	"git.home.luguber.info/inful/doxidize/internal/walker"
)

func newRenderer(t *testing.T, root string, opts Options) *Renderer {
	t.Helper()
	engine, err := templates.New("")
	require.NoError(t, err)
	md, err := markdown.NewConverter(0)
	require.NoError(t, err)
	opts.Paths = config.NewPaths(filepath.Join(root, "Cargo.toml"), "")
	return New(engine, md, opts)
}

// crate builds:
//
//	demo
//	├── zeta (mod)
//	│   └── Inner (struct)
//	│       └── x (field)
//	├── alpha (mod)
//	│   └── deep (mod)
//	├── Point (struct)
//	├── Speak (trait)
//	└── Light (enum)
//	    └── Red (tuple)
func crate(t *testing.T) (*defs.Index, *walker.Result) {
	t.Helper()
	ix := defs.NewIndex()
	ids := map[string]defs.ID{}
	add := func(kind defs.Kind, name, qual, parent, docs string) {
		d := defs.Definition{Kind: kind, Name: name, QualName: qual, Docs: docs}
		if parent != "" {
			d.Parent = ids[parent]
			d.HasParent = true
		}
		id, err := ix.Add(d)
		require.NoError(t, err)
		ids[qual] = id
	}
	add(defs.KindModule, "", "demo", "", " The demo crate.")
	add(defs.KindModule, "zeta", "demo::zeta", "demo", " Last module.")
	add(defs.KindModule, "alpha", "demo::alpha", "demo", "")
	add(defs.KindStruct, "Point", "demo::Point", "demo", " A point in space.")
	add(defs.KindTrait, "Speak", "demo::Speak", "demo", "")
	add(defs.KindEnum, "Light", "demo::Light", "demo", "")
	add(defs.KindStruct, "Inner", "demo::zeta::Inner", "demo::zeta", "")
	add(defs.KindModule, "deep", "demo::alpha::deep", "demo::alpha", "")
	add(defs.KindField, "x", "demo::zeta::Inner::x", "demo::zeta::Inner", "")
	add(defs.KindTuple, "Red", "demo::Light::Red", "demo::Light", "")

	res, err := walker.Walk(ix, ids["demo"])
	require.NoError(t, err)
	return ix, res
}

func TestTemplateFor(t *testing.T) {
	tests := []struct {
		kind defs.Kind
		want string
		ok   bool
	}{
		{defs.KindModule, templates.Module, true},
		{defs.KindStruct, templates.Struct, true},
		{defs.KindEnum, templates.Enum, true},
		{defs.KindTrait, templates.Trait, true},
		{defs.KindFunction, templates.Function, true},
		{defs.KindTypeAlias, templates.Type, true},
		{defs.KindStatic, templates.Static, true},
		{defs.KindConst, templates.Const, true},
		{defs.KindField, "", false},
		{defs.KindTuple, "", false},
		{defs.KindLocal, "", false},
		{defs.KindOther, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got, ok := TemplateFor(tt.kind)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.kind.Documentable(), ok)
		})
	}
}

func TestRenderAPI(t *testing.T) {
	root := t.TempDir()
	r := newRenderer(t, root, Options{})
	ix, res := crate(t)

	require.NoError(t, r.RenderAPI(ix, "demo", res))

	fa := dxtesting.NewFileAssertions(t, root)
	fa.AssertFileContains("docs/api/README.md", "# demo\n\nThe demo crate.").
		AssertFileContains("docs/api/Point.md", "# Struct `Point`").
		AssertFileContains("docs/api/zeta.md", "# Module `demo::zeta`\n\nLast module.").
		AssertFileExists("docs/api/zeta/Inner.md").
		AssertFileExists("docs/api/alpha/deep.md").
		AssertFileExists("public/api/index.html").
		AssertFileExists("public/api/zeta/Inner.html").
		AssertFileNotExists("docs/api/Light").
		AssertFileNotExists("docs/api/zeta/Inner")

	fa.AssertFileEquals("docs/api/module-overview.md", "# Module overview\n\n"+
		"* [demo](/api/index.html)\n"+
		"  * [alpha](/api/alpha.html)\n"+
		"    * [deep](/api/alpha/deep.html)\n"+
		"  * [zeta](/api/zeta.html)\n")
	fa.AssertFileEquals("docs/api/struct-overview.md", "# Struct overview\n\n"+
		"* [Inner](/api/zeta/Inner.html)\n"+
		"* [Point](/api/Point.html)\n")
	fa.AssertFileEquals("docs/api/trait-overview.md", "# Trait overview\n\n"+
		"* [Speak](/api/Speak.html)\n")

	fa.AssertFileContains("public/api/zeta/Inner.html", `href="../../index.html"`).
		AssertFileContains("public/api/struct-overview.html", "<title>Struct overview</title>").
		AssertFileContains("public/api/trait-overview.html", "<title>Trait overview</title>")

	set := r.Artifacts()
	apiDir := filepath.Join(root, "docs", "api")
	assert.True(t, set.IsDir(apiDir))
	assert.True(t, set.IsDir(filepath.Join(apiDir, "zeta")))
	assert.True(t, set.IsDir(filepath.Join(root, "target", "docs", "public", "api", "alpha")))
	assert.True(t, set.Has(filepath.Join(apiDir, "alpha", "deep.md")))
	assert.False(t, set.Has(filepath.Join(apiDir, "Light")))
	assert.Equal(t, 7, r.Stats().Definitions)
}

func TestRenderAPI_MarkdownOnly(t *testing.T) {
	root := t.TempDir()
	r := newRenderer(t, root, Options{MarkdownOnly: true, BasePath: "/demo/"})
	ix, res := crate(t)

	require.NoError(t, r.RenderAPI(ix, "demo", res))

	fa := dxtesting.NewFileAssertions(t, root)
	fa.AssertFileExists("docs/api/Point.md").
		AssertFileNotExists("target/docs/public").
		AssertFileContains("docs/api/struct-overview.md", "* [Point](/demo/api/Point.html)")
}

func TestRenderDocuments_EndToEnd(t *testing.T) {
	pb := dxtesting.NewProjectBuilder(t).
		WithDoc("README.md", "# Home\n").
		WithDoc("guide.md", "# Testing\n\ntesting")
	pb.Build()

	r := newRenderer(t, pb.Root(), Options{})
	files, err := docs.Discover(filepath.Join(pb.Root(), "docs"))
	require.NoError(t, err)
	require.NoError(t, r.RenderDocuments(files))

	fa := pb.Assert()
	fa.AssertFileContains("target/docs/public/guide.html", "<main>\n<h1>Testing</h1>\n<p>testing</p>\n</main>").
		AssertFileContains("target/docs/public/guide.html", "<title>Testing</title>").
		AssertFileContains("target/docs/public/index.html", "<title>Home</title>").
		AssertFileNotExists("target/docs/public/README.html")
	assert.Equal(t, 2, r.Stats().Documents)
}

func TestRenderDocuments_NestingAndBasePath(t *testing.T) {
	pb := dxtesting.NewProjectBuilder(t).
		WithDoc("a/b/page.md", "---\ntitle: Deep Page\n---\nbody\n").
		WithDoc("img/logo.png", "png")
	pb.Build()

	r := newRenderer(t, pb.Root(), Options{
		BasePath: "sub",
		Menu:     []config.MenuEntry{{Title: "Guides", Pages: []string{"a/b/page", "README"}}},
	})
	files, err := docs.Discover(filepath.Join(pb.Root(), "docs"))
	require.NoError(t, err)
	require.NoError(t, r.RenderDocuments(files))

	fa := pb.Assert()
	page := "target/docs/public/a/b/page.html"
	fa.AssertFileContains(page, "<title>Deep Page</title>").
		AssertFileContains(page, `href="../../../sub/index.html">Home`).
		AssertFileContains(page, `href="../../../sub/a/b/page.html">Deep Page</a>`).
		AssertFileContains(page, `href="../../../sub/index.html">README</a>`).
		AssertFileEquals("target/docs/public/img/logo.png", "png")

	public := filepath.Join(pb.Root(), "target", "docs", "public")
	set := r.Artifacts()
	for _, dir := range []string{public, filepath.Join(public, "a"), filepath.Join(public, "a", "b"), filepath.Join(public, "img")} {
		assert.True(t, set.IsDir(dir), dir)
	}
	assert.Equal(t, 1, r.Stats().Assets)
}

func TestRenderDocuments_EscapesTitles(t *testing.T) {
	pb := dxtesting.NewProjectBuilder(t).
		WithDoc("tips.md", "---\ntitle: Tips <b> & tricks\n---\nbody\n")
	pb.Build()

	r := newRenderer(t, pb.Root(), Options{
		Menu: []config.MenuEntry{{Title: "Q&A", Pages: []string{"tips"}}},
	})
	files, err := docs.Discover(filepath.Join(pb.Root(), "docs"))
	require.NoError(t, err)
	require.NoError(t, r.RenderDocuments(files))

	pb.Assert().
		AssertFileContains("target/docs/public/tips.html", "<title>Tips &lt;b&gt; &amp; tricks</title>").
		AssertFileContains("target/docs/public/tips.html", "<h3>Q&amp;A</h3>").
		AssertFileContains("target/docs/public/tips.html", `href="tips.html">Tips &lt;b&gt; &amp; tricks</a>`)
}

func TestRenderDocuments_TitleFallsBackToFileName(t *testing.T) {
	pb := dxtesting.NewProjectBuilder(t).WithDoc("notes.md", "no heading here\n")
	pb.Build()

	r := newRenderer(t, pb.Root(), Options{LiveReload: true})
	files, err := docs.Discover(filepath.Join(pb.Root(), "docs"))
	require.NoError(t, err)
	require.NoError(t, r.RenderDocuments(files))

	pb.Assert().
		AssertFileContains("target/docs/public/notes.html", "<title>notes</title>").
		AssertFileContains("target/docs/public/notes.html", "/__livereload")
}

func TestRenderExamples(t *testing.T) {
	pb := dxtesting.NewProjectBuilder(t).
		WithExample("simple-cli.rs", "fn main() {}\n").
		WithExample("README.txt", "ignored")
	pb.Build()

	r := newRenderer(t, pb.Root(), Options{})
	require.NoError(t, r.RenderExamples())

	pb.Assert().
		AssertFileEquals("docs/examples/simple-cli.md", "# Example `simple-cli.rs`\n\n```rust\nfn main() {}\n```\n").
		AssertFileNotExists("docs/examples/README.md")
	assert.Equal(t, 1, r.Stats().Examples)
}

func TestRenderExamples_NoExamplesDir(t *testing.T) {
	root := t.TempDir()
	r := newRenderer(t, root, Options{})
	require.NoError(t, r.RenderExamples())
	_, err := os.Stat(filepath.Join(root, "docs", "examples"))
	assert.True(t, os.IsNotExist(err))
}
