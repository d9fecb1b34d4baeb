// Package walker turns a definition graph into a processing order and the
// derived trees the overview pages are rendered from.
package walker

import (
	"cmp"
	"fmt"
	"slices"

	"git.home.luguber.info/inful/doxidize/internal/defs"
	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/util/sets"
)

// Result is the outcome of one breadth-first walk.
type Result struct {
	Root defs.ID
	// Order lists every descendant of Root in visit order.
	Order   []defs.ID
	Modules []defs.ID
	Structs []defs.ID
	Traits  []defs.ID
}

// Walk visits every descendant of root breadth-first. Each id is enqueued at
// most once even if the source reports it under several parents.
func Walk(src defs.Source, root defs.ID) (*Result, error) {
	seed, err := src.ChildrenOf(root)
	if err != nil {
		return nil, err
	}

	res := &Result{Root: root}
	seen := sets.New(root)
	queue := make([]defs.ID, 0, len(seed))
	enqueue := func(ids []defs.ID) {
		for _, id := range ids {
			if seen.Has(id) {
				continue
			}
			seen.Add(id)
			queue = append(queue, id)
		}
	}
	enqueue(seed)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		def, err := src.GetDef(id)
		if err != nil {
			return nil, invariantViolation(id, err)
		}
		kids, err := src.ChildrenOf(id)
		if err != nil {
			return nil, invariantViolation(id, err)
		}
		enqueue(kids)

		res.Order = append(res.Order, id)
		switch def.Kind {
		case defs.KindModule:
			res.Modules = append(res.Modules, id)
		case defs.KindStruct:
			res.Structs = append(res.Structs, id)
		case defs.KindTrait:
			res.Traits = append(res.Traits, id)
		}
	}
	return res, nil
}

func invariantViolation(id defs.ID, cause error) error {
	return ferrors.WrapError(cause, ferrors.CategoryInternal, fmt.Sprintf("enqueued definition %d vanished from the source", id)).
		Fatal().
		WithContext("id", uint64(id)).
		Build()
}

// Tree is one node of a module tree.
type Tree struct {
	ID       defs.ID
	Def      defs.Definition
	Children []*Tree
}

// ModuleTree builds the module hierarchy below res.Root from the module
// classification list. Children are sorted by name, then id.
func ModuleTree(src defs.Source, res *Result) (*Tree, error) {
	rootDef, err := src.GetDef(res.Root)
	if err != nil {
		return nil, err
	}

	byParent := make(map[defs.ID][]defs.Definition)
	for _, id := range res.Modules {
		d, err := src.GetDef(id)
		if err != nil {
			return nil, invariantViolation(id, err)
		}
		if d.HasParent {
			byParent[d.Parent] = append(byParent[d.Parent], d)
		}
	}
	for _, kids := range byParent {
		sortByName(kids)
	}

	seen := sets.New[defs.ID]()
	var build func(d defs.Definition) *Tree
	build = func(d defs.Definition) *Tree {
		seen.Add(d.ID)
		node := &Tree{ID: d.ID, Def: d}
		for _, kid := range byParent[d.ID] {
			if seen.Has(kid.ID) {
				continue
			}
			node.Children = append(node.Children, build(kid))
		}
		return node
	}
	return build(rootDef), nil
}

// Walk calls fn for every node of the tree in depth-first pre-order.
func (t *Tree) Walk(fn func(node *Tree, depth int)) {
	var visit func(n *Tree, depth int)
	visit = func(n *Tree, depth int) {
		fn(n, depth)
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(t, 0)
}

// SortedGroup resolves ids and returns the definitions sorted by name, then id.
func SortedGroup(src defs.Source, ids []defs.ID) ([]defs.Definition, error) {
	out := make([]defs.Definition, 0, len(ids))
	for _, id := range ids {
		d, err := src.GetDef(id)
		if err != nil {
			return nil, invariantViolation(id, err)
		}
		out = append(out, d)
	}
	sortByName(out)
	return out, nil
}

func sortByName(ds []defs.Definition) {
	slices.SortFunc(ds, func(a, b defs.Definition) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
