package walker

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doxidize/internal/defs"
	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
)

// sample mirrors the shape of a small crate:
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
func sample(t *testing.T) (*defs.Index, map[string]defs.ID) {
	t.Helper()
	ix := defs.NewIndex()
	ids := map[string]defs.ID{}
	add := func(key string, kind defs.Kind, name, qual, parent string) {
		d := defs.Definition{Kind: kind, Name: name, QualName: qual}
		if parent != "" {
			d.Parent = ids[parent]
			d.HasParent = true
		}
		id, err := ix.Add(d)
		require.NoError(t, err)
		ids[key] = id
	}
	add("demo", defs.KindModule, "", "demo", "")
	add("zeta", defs.KindModule, "zeta", "demo::zeta", "demo")
	add("alpha", defs.KindModule, "alpha", "demo::alpha", "demo")
	add("Point", defs.KindStruct, "Point", "demo::Point", "demo")
	add("Speak", defs.KindTrait, "Speak", "demo::Speak", "demo")
	add("Light", defs.KindEnum, "Light", "demo::Light", "demo")
	add("Inner", defs.KindStruct, "Inner", "demo::zeta::Inner", "zeta")
	add("deep", defs.KindModule, "deep", "demo::alpha::deep", "alpha")
	add("x", defs.KindField, "x", "demo::zeta::Inner::x", "Inner")
	add("Red", defs.KindTuple, "Red", "demo::Light::Red", "Light")
	return ix, ids
}

func TestWalk_VisitsEveryDescendantOnce(t *testing.T) {
	ix, ids := sample(t)

	res, err := Walk(ix, ids["demo"])
	require.NoError(t, err)

	assert.Len(t, res.Order, ix.Len()-1)
	seen := map[defs.ID]int{}
	for _, id := range res.Order {
		seen[id]++
	}
	for key, id := range ids {
		if key == "demo" {
			continue
		}
		assert.Equal(t, 1, seen[id], key)
	}
}

func TestWalk_ParentsComeFirst(t *testing.T) {
	ix, ids := sample(t)
	res, err := Walk(ix, ids["demo"])
	require.NoError(t, err)

	pos := map[defs.ID]int{}
	for i, id := range res.Order {
		pos[id] = i
	}
	for _, id := range res.Order {
		d, err := ix.GetDef(id)
		require.NoError(t, err)
		if d.Parent == ids["demo"] {
			continue
		}
		assert.Less(t, pos[d.Parent], pos[id], d.QualName)
	}
}

func TestWalk_Classification(t *testing.T) {
	ix, ids := sample(t)
	res, err := Walk(ix, ids["demo"])
	require.NoError(t, err)

	assert.ElementsMatch(t, []defs.ID{ids["zeta"], ids["alpha"], ids["deep"]}, res.Modules)
	assert.ElementsMatch(t, []defs.ID{ids["Point"], ids["Inner"]}, res.Structs)
	assert.Equal(t, []defs.ID{ids["Speak"]}, res.Traits)
}

// duplicateSource reports the same child under two parents.
type duplicateSource struct{ *defs.Index }

func (d duplicateSource) ChildrenOf(id defs.ID) ([]defs.ID, error) {
	kids, err := d.Index.ChildrenOf(id)
	if err != nil {
		return nil, err
	}
	return append(kids, kids...), nil
}

func TestWalk_GuardsAgainstRevisits(t *testing.T) {
	ix, ids := sample(t)
	res, err := Walk(duplicateSource{ix}, ids["demo"])
	require.NoError(t, err)
	assert.Len(t, res.Order, ix.Len()-1)
}

// vanishingSource forgets a definition after it has been enqueued.
type vanishingSource struct {
	*defs.Index
	gone defs.ID
}

func (v vanishingSource) GetDef(id defs.ID) (defs.Definition, error) {
	if id == v.gone {
		return defs.Definition{}, defs.ErrNotFound
	}
	return v.Index.GetDef(id)
}

func TestWalk_MissingEnqueuedDefinitionIsInternal(t *testing.T) {
	ix, ids := sample(t)
	_, err := Walk(vanishingSource{ix, ids["Point"]}, ids["demo"])
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryInternal))
	assert.True(t, ferrors.HasSeverity(err, ferrors.SeverityFatal))
}

func TestModuleTree_SortedAndNested(t *testing.T) {
	ix, ids := sample(t)
	res, err := Walk(ix, ids["demo"])
	require.NoError(t, err)

	tree, err := ModuleTree(ix, res)
	require.NoError(t, err)

	var lines []string
	tree.Walk(func(n *Tree, depth int) {
		lines = append(lines, string(rune('0'+depth))+n.Def.QualName)
	})
	assert.Equal(t, []string{"0demo", "1demo::alpha", "2demo::alpha::deep", "1demo::zeta"}, lines)
}

func TestDeterministicAcrossInsertionOrders(t *testing.T) {
	render := func(seed uint64) []string {
		ix := defs.NewIndex()
		root, err := ix.Add(defs.Definition{Kind: defs.KindModule, QualName: "demo"})
		require.NoError(t, err)
		names := []string{"m", "c", "x", "a", "k", "b"}
		r := rand.New(rand.NewPCG(seed, seed))
		r.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
		for _, n := range names {
			_, err := ix.Add(defs.Definition{Kind: defs.KindModule, Name: n, QualName: "demo::" + n, Parent: root, HasParent: true})
			require.NoError(t, err)
			_, err = ix.Add(defs.Definition{Kind: defs.KindStruct, Name: "S" + n, QualName: "demo::S" + n, Parent: root, HasParent: true})
			require.NoError(t, err)
		}
		res, err := Walk(ix, root)
		require.NoError(t, err)
		tree, err := ModuleTree(ix, res)
		require.NoError(t, err)
		var out []string
		tree.Walk(func(n *Tree, _ int) { out = append(out, n.Def.Name) })
		group, err := SortedGroup(ix, res.Structs)
		require.NoError(t, err)
		for _, d := range group {
			out = append(out, d.Name)
		}
		return out
	}

	first := render(1)
	assert.Equal(t, first, render(1))
	assert.Equal(t, first, render(99))
	assert.Equal(t, []string{"", "a", "b", "c", "k", "m", "x", "Sa", "Sb", "Sc", "Sk", "Sm", "Sx"}, first)
}
