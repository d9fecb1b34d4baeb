package rustsrc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doxidize/internal/defs"
)

const libRS = `//! The demo crate.
//! Second line.

/// A point in space
#[derive(Debug)]
pub struct Point {
    /// horizontal
    pub x: i32,
    y: i32,
}

/// Colors
pub enum Light {
    /// Stop
    Red,
    Green,
}

pub mod shapes;

mod private {
    pub fn hidden() {}
}

/// Adds
pub fn add(a: i32, b: i32) -> i32 {
    a + b
}

pub(crate) fn internal() {}

/// Five
pub const FIVE: i32 = 5;
`

const shapesRS = `//! Shapes.

/// A circle
pub struct Circle;

pub mod inner {
    /// Deep
    pub trait Area {
        fn area(&self) -> f64;
    }
}
`

func writeCrate(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.rs"), []byte(libRS), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shapes.rs"), []byte(shapesRS), 0o644))
	return filepath.Join(dir, "lib.rs")
}

func byQual(t *testing.T, c *Crate) map[string]defs.Definition {
	t.Helper()
	out := map[string]defs.Definition{}
	var visit func(id defs.ID)
	visit = func(id defs.ID) {
		d, err := c.Index.GetDef(id)
		require.NoError(t, err)
		out[d.QualName] = d
		kids, err := c.Index.ChildrenOf(id)
		require.NoError(t, err)
		for _, k := range kids {
			visit(k)
		}
	}
	visit(c.Root)
	return out
}

func TestLoad(t *testing.T) {
	lib := writeCrate(t)

	c, err := Load("demo", lib)
	require.NoError(t, err)

	root, err := defs.FindRoot(c.Index, "demo")
	require.NoError(t, err)
	assert.Equal(t, c.Root, root)
	assert.Equal(t, []string{lib, filepath.Join(filepath.Dir(lib), "shapes.rs")}, c.Files)

	all := byQual(t, c)
	assert.Equal(t, " The demo crate.\n Second line.", all["demo"].Docs)

	point := all["demo::Point"]
	assert.Equal(t, defs.KindStruct, point.Kind)
	assert.Equal(t, " A point in space", point.Docs)
	assert.Equal(t, "pub struct Point", point.Signature)

	assert.Equal(t, defs.KindField, all["demo::Point::x"].Kind)
	assert.Equal(t, " horizontal", all["demo::Point::x"].Docs)
	assert.NotContains(t, all, "demo::Point::y")

	assert.Equal(t, defs.KindTuple, all["demo::Light::Red"].Kind)
	assert.Equal(t, " Stop", all["demo::Light::Red"].Docs)
	assert.Contains(t, all, "demo::Light::Green")

	assert.Equal(t, "pub fn add(a: i32, b: i32) -> i32", all["demo::add"].Signature)
	assert.Equal(t, "pub const FIVE: i32 = 5", all["demo::FIVE"].Signature)
	assert.Equal(t, defs.KindConst, all["demo::FIVE"].Kind)

	assert.Equal(t, " Shapes.", all["demo::shapes"].Docs)
	assert.Equal(t, "pub struct Circle", all["demo::shapes::Circle"].Signature)
	area := all["demo::shapes::inner::Area"]
	assert.Equal(t, defs.KindTrait, area.Kind)
	assert.Equal(t, " Deep", area.Docs)

	for _, hidden := range []string{"demo::private", "demo::private::hidden", "demo::internal"} {
		assert.NotContains(t, all, hidden)
	}

	kids, err := c.Index.ChildrenOf(c.Root)
	require.NoError(t, err)
	var names []string
	for _, k := range kids {
		d, err := c.Index.GetDef(k)
		require.NoError(t, err)
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"Point", "Light", "shapes", "add", "FIVE"}, names)
}

func TestLoad_ModRS(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "net"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.rs"), []byte("pub mod net;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "net", "mod.rs"), []byte("pub mod tcp;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "net", "tcp.rs"), []byte("/// Stream\npub struct Stream {}\n"), 0o644))

	c, err := Load("demo", filepath.Join(dir, "lib.rs"))
	require.NoError(t, err)
	all := byQual(t, c)
	assert.Equal(t, " Stream", all["demo::net::tcp::Stream"].Docs)
	assert.Len(t, c.Files, 3)
}

func TestLoad_MissingRoot(t *testing.T) {
	_, err := Load("demo", filepath.Join(t.TempDir(), "lib.rs"))
	require.Error(t, err)
}
