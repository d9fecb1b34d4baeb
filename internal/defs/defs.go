// Package defs holds the definition graph produced by an analysis backend.
//
// Definitions live in an arena keyed by ID. Parent links are plain IDs and
// the child adjacency lists are derived from them, so no definition owns
// another.
package defs

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
)

// ErrNotFound is the cause of every lookup failure returned by a Source.
var ErrNotFound = errors.New("definition not found")

// ID identifies a definition within one analysis load.
type ID uint64

// Definition is one declaration record.
type Definition struct {
	ID        ID
	Kind      Kind
	Name      string
	QualName  string
	Parent    ID
	HasParent bool
	Docs      string
	Signature string
}

// Root is a top-level entry of the definition graph.
type Root struct {
	ID   ID
	Name string
}

// Source is the read side of a loaded definition graph.
type Source interface {
	DefRoots() ([]Root, error)
	GetDef(id ID) (Definition, error)
	ChildrenOf(id ID) ([]ID, error)
}

// Index is the in-memory arena implementation of Source.
type Index struct {
	defs     map[ID]Definition
	children map[ID][]ID
	roots    []Root
	next     ID
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		defs:     make(map[ID]Definition),
		children: make(map[ID][]ID),
		next:     1,
	}
}

// Add stores d, assigning a fresh ID when d.ID is zero, and returns the ID used.
// A parent must be added before its children.
func (ix *Index) Add(d Definition) (ID, error) {
	if d.ID == 0 {
		d.ID = ix.next
	}
	if _, dup := ix.defs[d.ID]; dup {
		return 0, ferrors.MetadataError(fmt.Sprintf("duplicate definition id %d", d.ID)).Build()
	}
	if d.HasParent {
		if _, ok := ix.defs[d.Parent]; !ok {
			return 0, ferrors.MetadataError(fmt.Sprintf("definition %d references unknown parent %d", d.ID, d.Parent)).Build()
		}
		ix.children[d.Parent] = append(ix.children[d.Parent], d.ID)
	} else {
		name := d.Name
		if name == "" {
			name = d.QualName
		}
		ix.roots = append(ix.roots, Root{ID: d.ID, Name: name})
	}
	ix.defs[d.ID] = d
	if d.ID >= ix.next {
		ix.next = d.ID + 1
	}
	return d.ID, nil
}

// Update replaces the stored definition with the same ID. Parent links are
// fixed at Add time and are not changed.
func (ix *Index) Update(d Definition) bool {
	old, ok := ix.defs[d.ID]
	if !ok {
		return false
	}
	d.Parent, d.HasParent = old.Parent, old.HasParent
	ix.defs[d.ID] = d
	return true
}

// Len returns the number of stored definitions.
func (ix *Index) Len() int { return len(ix.defs) }

// DefRoots returns the parentless definitions in insertion order.
func (ix *Index) DefRoots() ([]Root, error) {
	out := make([]Root, len(ix.roots))
	copy(out, ix.roots)
	return out, nil
}

// GetDef returns the definition stored under id.
func (ix *Index) GetDef(id ID) (Definition, error) {
	d, ok := ix.defs[id]
	if !ok {
		return Definition{}, ferrors.WrapError(ErrNotFound, ferrors.CategoryNotFound, fmt.Sprintf("no definition with id %d", id)).
			WithContext("id", uint64(id)).
			Build()
	}
	return d, nil
}

// ChildrenOf returns the direct children of id in insertion order.
func (ix *Index) ChildrenOf(id ID) ([]ID, error) {
	if _, ok := ix.defs[id]; !ok {
		return nil, ferrors.WrapError(ErrNotFound, ferrors.CategoryNotFound, fmt.Sprintf("no definition with id %d", id)).
			WithContext("id", uint64(id)).
			Build()
	}
	kids := ix.children[id]
	out := make([]ID, len(kids))
	copy(out, kids)
	return out, nil
}

// FindRoot returns the root named crate.
func FindRoot(src Source, crate string) (ID, error) {
	roots, err := src.DefRoots()
	if err != nil {
		return 0, err
	}
	for _, r := range roots {
		if r.Name == crate {
			return r.ID, nil
		}
	}
	return 0, ferrors.NotFoundError(fmt.Sprintf("crate not found: %q", crate)).
		WithContext("crate", crate).
		Build()
}
