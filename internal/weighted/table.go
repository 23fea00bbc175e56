// Package weighted draws candidates from normalized probability tables.
package weighted

import (
	"fmt"
	"math"
)

// Source yields uniform samples in [0, 1). *math/rand/v2.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Entry pairs a candidate with its raw weight.
type Entry[T any] struct {
	Candidate T
	Weight    float64
}

// Table is a normalized distribution over a fixed, ordered candidate list.
// Weights are normalized once at construction so they sum to 1. A table
// whose raw weights sum to zero is degenerate and never selects anything.
type Table[T any] struct {
	entries []Entry[T]
	last    int // index of the last positive-weight entry, -1 if none
}

// New copies entries and normalizes them. Negative, NaN or infinite weights
// are rejected.
func New[T any](entries []Entry[T]) (*Table[T], error) {
	t := &Table[T]{entries: make([]Entry[T], len(entries)), last: -1}
	copy(t.entries, entries)

	largest := 0.0
	for i, e := range t.entries {
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) || e.Weight < 0 {
			return nil, fmt.Errorf("entry %d: invalid weight %v", i, e.Weight)
		}
		largest = max(largest, e.Weight)
	}
	if largest == 0 {
		return t, nil
	}
	// Scale to (0, 1] first so the sum stays finite for huge weights.
	total := 0.0
	for i := range t.entries {
		t.entries[i].Weight /= largest
		total += t.entries[i].Weight
	}
	for i := range t.entries {
		t.entries[i].Weight /= total
		if t.entries[i].Weight > 0 {
			t.last = i
		}
	}
	return t, nil
}

// MustNew is New for tables built from constants.
func MustNew[T any](entries []Entry[T]) *Table[T] {
	t, err := New(entries)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of candidates.
func (t *Table[T]) Len() int { return len(t.entries) }

// Degenerate reports whether the table can never select a candidate.
func (t *Table[T]) Degenerate() bool { return t.last < 0 }

// Weights returns the normalized weights in declaration order.
func (t *Table[T]) Weights() []float64 {
	out := make([]float64, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Weight
	}
	return out
}

// Select maps r in [0, 1) to a candidate by inverse-CDF over declaration
// order: the first candidate whose cumulative weight reaches r wins, so the
// earliest candidate takes exact ties. Zero-weight candidates are never
// selected.
func (t *Table[T]) Select(r float64) (T, bool) {
	var zero T
	if t.last < 0 {
		return zero, false
	}
	cum := 0.0
	for _, e := range t.entries {
		if e.Weight == 0 {
			continue
		}
		cum += e.Weight
		if cum >= r {
			return e.Candidate, true
		}
	}
	// Accumulated rounding left r just above the final sum.
	return t.entries[t.last].Candidate, true
}

// Draw samples src once and selects a candidate.
func (t *Table[T]) Draw(src Source) (T, bool) {
	return t.Select(src.Float64())
}

// Gate decides whether a draw should happen at all.
type Gate struct {
	NoDrop float64 // probability that nothing drops, 0..1
}

// ShouldDrop takes its own uniform sample and passes when it is at or above
// the no-drop probability.
func (g Gate) ShouldDrop(src Source) bool {
	return src.Float64() >= g.NoDrop
}
