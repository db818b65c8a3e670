package rag

import (
	"container/heap"
	"math"
	"slices"
)

// VectorIndex is an immutable, in-memory collection of embedded passages.
// It is safe for concurrent Search calls.
type VectorIndex struct {
	entries []IndexEntry
	unit    [][]float32
	dim     int
}

// BuildIndex validates entries and returns an index over a private copy of
// them. All vectors must share one non-zero dimension and hold finite values.
func BuildIndex(entries []IndexEntry) (*VectorIndex, error) {
	const op = "index.build"
	if len(entries) == 0 {
		return nil, NewError(KindEmptyIndex, op, nil)
	}
	dim := len(entries[0].Vector)
	if dim == 0 {
		return nil, Errorf(KindDimensionMismatch, op, "entry 0 has an empty vector")
	}

	idx := &VectorIndex{
		entries: make([]IndexEntry, len(entries)),
		unit:    make([][]float32, len(entries)),
		dim:     dim,
	}
	for i, e := range entries {
		if len(e.Vector) != dim {
			return nil, Errorf(KindDimensionMismatch, op, "entry %d has dimension %d, want %d", i, len(e.Vector), dim)
		}
		if !finite(e.Vector) {
			return nil, Errorf(KindInvalidParameter, op, "entry %d has a non-finite component", i)
		}
		idx.entries[i] = IndexEntry{Passage: e.Passage, Vector: slices.Clone(e.Vector)}
		idx.unit[i] = normalize(e.Vector)
	}
	return idx, nil
}

// Len returns the number of entries.
func (x *VectorIndex) Len() int { return len(x.entries) }

// Dimension returns the shared vector dimension.
func (x *VectorIndex) Dimension() int { return x.dim }

// Entries returns a copy of the entries in insertion order.
func (x *VectorIndex) Entries() []IndexEntry {
	out := make([]IndexEntry, len(x.entries))
	for i, e := range x.entries {
		out[i] = IndexEntry{Passage: e.Passage, Vector: slices.Clone(e.Vector)}
	}
	return out
}

// Passages returns the indexed passages in insertion order.
func (x *VectorIndex) Passages() []Passage {
	out := make([]Passage, len(x.entries))
	for i, e := range x.entries {
		out[i] = e.Passage
	}
	return out
}

// Search returns up to k entries ranked by cosine similarity to query,
// highest first. Equal scores keep insertion order.
func (x *VectorIndex) Search(query Vector, k int) ([]ScoredPassage, error) {
	const op = "index.search"
	if k <= 0 {
		return nil, Errorf(KindInvalidParameter, op, "k must be positive, got %d", k)
	}
	if len(query) != x.dim {
		return nil, Errorf(KindDimensionMismatch, op, "query has dimension %d, index has %d", len(query), x.dim)
	}
	if !finite(query) {
		return nil, Errorf(KindInvalidParameter, op, "query has a non-finite component")
	}

	q := normalize(query)
	h := make(hitHeap, 0, min(k, len(x.unit)))
	for i, u := range x.unit {
		c := hit{pos: i, score: dot(q, u)}
		if len(h) < k {
			heap.Push(&h, c)
			continue
		}
		if h[0].worse(c) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}

	slices.SortFunc(h, func(a, b hit) int {
		switch {
		case b.worse(a):
			return -1
		case a.worse(b):
			return 1
		}
		return 0
	})

	out := make([]ScoredPassage, len(h))
	for i, c := range h {
		out[i] = ScoredPassage{Passage: x.entries[c.pos].Passage, Score: c.score}
	}
	return out, nil
}

type hit struct {
	pos   int
	score float32
}

// worse reports whether h ranks below o: lower score, or equal score and
// later insertion.
func (h hit) worse(o hit) bool {
	if h.score != o.score {
		return h.score < o.score
	}
	return h.pos > o.pos
}

// hitHeap keeps the worst retained hit at the root.
type hitHeap []hit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return h[i].worse(h[j]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(v any)        { *h = append(*h, v.(hit)) }
func (h *hitHeap) Pop() any {
	old := *h
	v := old[len(old)-1]
	*h = old[:len(old)-1]
	return v
}

// normalize returns the L2 unit vector of v. A zero vector stays zero and so
// scores 0 against everything.
func normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return float32(s)
}

func finite(v []float32) bool {
	for _, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return false
		}
	}
	return true
}
