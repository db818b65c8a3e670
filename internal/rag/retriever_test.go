package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
)

// bigramEmbedder hashes character bigrams into a small fixed vector.
type bigramEmbedder struct {
	calls atomic.Int32
	err   error
	short bool
}

const bigramDim = 64

func (e *bigramEmbedder) Embed(_ context.Context, text string) (Vector, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	if text == "" {
		return nil, Errorf(KindEmptyInput, "fake.embed", "empty text")
	}
	v := make(Vector, bigramDim)
	r := []rune(strings.ToLower(text))
	for i := 0; i+1 < len(r); i++ {
		v[(int(r[i])*31+int(r[i+1]))%bigramDim]++
	}
	return v, nil
}

func (e *bigramEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	out := make([]Vector, 0, len(texts))
	for _, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if e.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (e *bigramEmbedder) Dimension() int { return bigramDim }

const corpus = "Go programs are organized into packages. A package is a collection of source files " +
	"in the same directory that are compiled together. Functions, types, variables, and constants " +
	"defined in one source file are visible to all other source files within the same package. " +
	"A repository contains one or more modules. A module is a collection of related Go packages " +
	"that are released together. Each module's path serves as an import path prefix for its packages."

func TestRetriever_BuildFollowsPassageOrder(t *testing.T) {
	t.Parallel()
	r, err := NewRetriever(&bigramEmbedder{}, 3)
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}
	doc := Document{ID: "go.txt", Text: corpus}
	idx, err := r.BuildFromDocument(context.Background(), doc, 60, 10)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want, _ := Split(doc, 60, 10)
	got := idx.Passages()
	if len(got) != len(want) {
		t.Fatalf("want %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: want %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestRetriever_VerbatimPassageRoundTrip(t *testing.T) {
	t.Parallel()
	r, _ := NewRetriever(&bigramEmbedder{}, 3)
	ctx := context.Background()
	idx, err := r.BuildFromDocument(ctx, Document{ID: "go.txt", Text: corpus}, 80, 20)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, p := range idx.Passages() {
		got, err := r.Retrieve(ctx, idx, p.Text, 3)
		if err != nil {
			t.Fatalf("retrieve: %v", err)
		}
		found := false
		for _, g := range got {
			if g.Index == p.Index {
				found = true
			}
		}
		if !found {
			t.Errorf("passage %d not in top 3 for its own text", p.Index)
		}
	}
}

func TestRetriever_DefaultTopK(t *testing.T) {
	t.Parallel()
	r, _ := NewRetriever(&bigramEmbedder{}, 2)
	ctx := context.Background()
	idx, err := r.BuildFromDocument(ctx, Document{ID: "go.txt", Text: corpus}, 50, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	hits, err := r.RetrieveScored(ctx, idx, "module path", 0)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("want default of 2 hits, got %d", len(hits))
	}
}

func TestRetriever_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	good, _ := NewRetriever(&bigramEmbedder{}, 3)
	idx, err := good.BuildFromDocument(ctx, Document{ID: "d", Text: corpus}, 100, 10)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"empty document", func() error {
			_, err := good.BuildFromDocument(ctx, Document{ID: "e"}, 10, 2)
			return err
		}, ErrNoPassages},
		{"whitespace document", func() error {
			_, err := good.BuildFromDocument(ctx, Document{ID: "w", Text: " \n\t  "}, 10, 2)
			return err
		}, ErrNoPassages},
		{"bad window", func() error {
			_, err := good.BuildFromDocument(ctx, Document{ID: "d", Text: corpus}, 10, 10)
			return err
		}, ErrInvalidParameter},
		{"embedder down", func() error {
			r, _ := NewRetriever(&bigramEmbedder{err: fmt.Errorf("connection refused")}, 3)
			_, err := r.BuildFromDocument(ctx, Document{ID: "d", Text: corpus}, 100, 10)
			return err
		}, ErrEmbeddingUnavailable},
		{"embedder returns too few vectors", func() error {
			r, _ := NewRetriever(&bigramEmbedder{short: true}, 3)
			_, err := r.BuildFromDocument(ctx, Document{ID: "d", Text: corpus}, 100, 10)
			return err
		}, ErrEmbeddingUnavailable},
		{"nil index", func() error {
			_, err := good.Retrieve(ctx, nil, "question", 3)
			return err
		}, ErrNoIndexAvailable},
		{"empty question", func() error {
			_, err := good.Retrieve(ctx, idx, "   ", 3)
			return err
		}, ErrEmptyInput},
		{"negative k", func() error {
			_, err := good.Retrieve(ctx, idx, "packages", -1)
			return err
		}, ErrInvalidParameter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := tc.run(); !errors.Is(err, tc.want) {
				t.Errorf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRetriever_NilEmbedder(t *testing.T) {
	t.Parallel()
	if _, err := NewRetriever(nil, 3); err == nil {
		t.Error("want error for nil embedder")
	}
}
