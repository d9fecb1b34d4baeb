// Package normalization maps loosely written configuration values onto a
// fixed set of canonical values.
package normalization

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Normalizer resolves spellings and aliases of an enum. "Tree-Sitter",
// "tree_sitter" and "treesitter" are one key.
type Normalizer[T comparable] struct {
	byKey    map[string]T
	fallback T
}

// NewNormalizer indexes values by Key. fallback is returned for empty input.
func NewNormalizer[T comparable](values map[string]T, fallback T) *Normalizer[T] {
	n := &Normalizer[T]{byKey: make(map[string]T, len(values)), fallback: fallback}
	for raw, v := range values {
		n.byKey[Key(raw)] = v
	}
	return n
}

// Lookup returns the value for raw. Unknown input is an error naming the
// accepted keys.
func (n *Normalizer[T]) Lookup(raw string) (T, error) {
	key := Key(raw)
	if key == "" {
		return n.fallback, nil
	}
	if v, ok := n.byKey[key]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.Keys())
}

// Keys lists the accepted keys in order.
func (n *Normalizer[T]) Keys() []string {
	return slices.Sorted(maps.Keys(n.byKey))
}

// Key is the comparison form of s.
func Key(s string) string {
	return strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}
