// Package normalization maps loosely written config strings onto typed enums.
package normalization

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Normalizer folds case and whitespace before looking a value up.
type Normalizer[T comparable] struct {
	values   map[string]T
	fallback T
	keys     []string
}

// NewNormalizer builds a normalizer that returns fallback for unknown input.
func NewNormalizer[T comparable](values map[string]T, fallback T) *Normalizer[T] {
	n := &Normalizer[T]{
		values:   make(map[string]T, len(values)),
		fallback: fallback,
		keys:     make([]string, 0, len(values)),
	}
	for k, v := range values {
		key := fold(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	sort.Strings(n.keys)
	return n
}

// Normalize returns the matching value or the fallback.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[fold(raw)]; ok {
		return v
	}
	return n.fallback
}

// Parse is Normalize without the fallback: unknown input is an error.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if v, ok := n.values[fold(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %s", raw, strings.Join(n.keys, "|"))
}

// Valid reports whether raw names a known value.
func (n *Normalizer[T]) Valid(raw string) bool {
	return slices.Contains(n.keys, fold(raw))
}

// Keys lists the accepted spellings, sorted.
func (n *Normalizer[T]) Keys() []string { return slices.Clone(n.keys) }

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
