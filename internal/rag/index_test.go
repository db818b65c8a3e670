package rag

import (
	"errors"
	"math"
	"testing"
)

func entry(i int, v ...float32) IndexEntry {
	return IndexEntry{Passage: Passage{DocumentID: "d", Index: i}, Vector: v}
}

func TestBuildIndex_Validation(t *testing.T) {
	t.Parallel()
	nan := float32(math.NaN())
	cases := []struct {
		name    string
		entries []IndexEntry
		want    error
	}{
		{"empty", nil, ErrEmptyIndex},
		{"zero-length vector", []IndexEntry{entry(0)}, ErrDimensionMismatch},
		{"mixed dimensions", []IndexEntry{entry(0, 1, 0), entry(1, 1, 0, 0)}, ErrDimensionMismatch},
		{"nan component", []IndexEntry{entry(0, 1, nan)}, ErrInvalidParameter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := BuildIndex(tc.entries)
			if !errors.Is(err, tc.want) {
				t.Errorf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestVectorIndex_SearchOrdering(t *testing.T) {
	t.Parallel()
	idx, err := BuildIndex([]IndexEntry{
		entry(0, 0, 1),
		entry(1, 1, 0),
		entry(2, 1, 1),
		entry(3, -1, 0),
		entry(4, 2, 0.1),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	hits, err := idx.Search(Vector{1, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("want 3 hits, got %d", len(hits))
	}
	wantOrder := []int{1, 4, 2}
	for i, h := range hits {
		if h.Passage.Index != wantOrder[i] {
			t.Errorf("hit %d: want passage %d, got %d", i, wantOrder[i], h.Passage.Index)
		}
		if i > 0 && h.Score > hits[i-1].Score {
			t.Errorf("scores increase at %d: %v > %v", i, h.Score, hits[i-1].Score)
		}
	}
	if math.Abs(float64(hits[0].Score)-1) > 1e-6 {
		t.Errorf("identical direction should score 1, got %v", hits[0].Score)
	}
}

func TestVectorIndex_TiesKeepInsertionOrder(t *testing.T) {
	t.Parallel()
	entries := make([]IndexEntry, 8)
	for i := range entries {
		entries[i] = entry(i, 3, 4)
	}
	idx, err := BuildIndex(entries)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	hits, err := idx.Search(Vector{3, 4}, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for i, h := range hits {
		if h.Passage.Index != i {
			t.Errorf("tie %d: want passage %d, got %d", i, i, h.Passage.Index)
		}
	}
}

func TestVectorIndex_KLargerThanIndex(t *testing.T) {
	t.Parallel()
	idx, err := BuildIndex([]IndexEntry{entry(0, 1, 0), entry(1, 0, 1)})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	hits, err := idx.Search(Vector{1, 1}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("want 2 hits, got %d", len(hits))
	}
}

func TestVectorIndex_SearchGuards(t *testing.T) {
	t.Parallel()
	idx, err := BuildIndex([]IndexEntry{entry(0, 1, 0, 0)})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := idx.Search(Vector{1, 0}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("short query: want ErrDimensionMismatch, got %v", err)
	}
	if _, err := idx.Search(Vector{1, 0, 0}, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("k=0: want ErrInvalidParameter, got %v", err)
	}
	if _, err := idx.Search(Vector{1, 0, 0}, -2); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("k<0: want ErrInvalidParameter, got %v", err)
	}
}

func TestVectorIndex_ZeroVectorScoresZero(t *testing.T) {
	t.Parallel()
	idx, err := BuildIndex([]IndexEntry{entry(0, 0, 0), entry(1, 1, 0)})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	hits, err := idx.Search(Vector{0, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, h := range hits {
		if h.Score != 0 {
			t.Errorf("passage %d: want score 0 for zero query, got %v", h.Passage.Index, h.Score)
		}
	}
}

func TestVectorIndex_CopiesInput(t *testing.T) {
	t.Parallel()
	v := Vector{1, 0}
	idx, err := BuildIndex([]IndexEntry{{Passage: Passage{Index: 0}, Vector: v}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	v[0], v[1] = 0, 1

	got := idx.Entries()
	if got[0].Vector[0] != 1 {
		t.Error("index shares the caller's vector")
	}
	got[0].Vector[0] = 42
	if idx.Entries()[0].Vector[0] != 1 {
		t.Error("Entries exposes internal storage")
	}
	if idx.Len() != 1 || idx.Dimension() != 2 || len(idx.Passages()) != 1 {
		t.Errorf("accessors: len=%d dim=%d", idx.Len(), idx.Dimension())
	}
}
