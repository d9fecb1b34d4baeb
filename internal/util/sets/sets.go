// Package sets has a generic set used by the walker and the artifact
// bookkeeping.
package sets

import (
	"cmp"
	"maps"
	"slices"
)

// Set holds comparable keys.
type Set[T comparable] map[T]struct{}

func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

func (s Set[T]) Add(v T) { s[v] = struct{}{} }

func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Difference is a new set with the keys of s missing from other.
func (s Set[T]) Difference(other Set[T]) Set[T] {
	out := make(Set[T])
	for k := range s {
		if !other.Has(k) {
			out.Add(k)
		}
	}
	return out
}

// Union adds the keys of other to s in place.
func (s Set[T]) Union(other Set[T]) { maps.Copy(s, other) }

// Sorted lists the keys in ascending order.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	return slices.Sorted(maps.Keys(s))
}
