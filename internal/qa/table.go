// Package qa holds the exact-match question table and the sources it is
// loaded from.
package qa

import (
	"maps"
	"slices"
)

// Table is an immutable snapshot of normalized question to answer.
type Table struct {
	answers map[string]string
}

// NewTable normalizes every question of pairs. Questions that normalize to
// the empty string are dropped; on collisions the lexically last original
// question wins, so the result does not depend on map order.
func NewTable(pairs map[string]string) *Table {
	t := &Table{answers: make(map[string]string, len(pairs))}
	for _, q := range slices.Sorted(maps.Keys(pairs)) {
		if k := Normalize(q); k != "" {
			t.answers[k] = pairs[q]
		}
	}
	return t
}

// Lookup normalizes question and returns its answer.
func (t *Table) Lookup(question string) (string, bool) {
	if t == nil {
		return "", false
	}
	a, ok := t.answers[Normalize(question)]
	return a, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.answers)
}

// Questions returns the normalized questions in sorted order.
func (t *Table) Questions() []string {
	if t == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(t.answers))
}

// Pairs returns a copy of the normalized question to answer map.
func (t *Table) Pairs() map[string]string {
	if t == nil {
		return map[string]string{}
	}
	return maps.Clone(t.answers)
}
