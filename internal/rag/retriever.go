package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Retriever composes the Segmenter, an Embedder and VectorIndex. It builds
// indexes from documents and answers retrieval queries against a given index.
// It holds no index itself; the pipeline controller owns the current one.
type Retriever struct {
	// embedder converts passage and query text to dense vectors.
	embedder Embedder

	// defaultTopK is the number of results to return when the caller passes 0.
	defaultTopK int
}

// NewRetriever constructs a Retriever from the given Embedder.
// defaultTopK sets the fallback result count when Retrieve is called with k=0.
func NewRetriever(embedder Embedder, defaultTopK int) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if defaultTopK <= 0 {
		defaultTopK = 3
	}
	return &Retriever{embedder: embedder, defaultTopK: defaultTopK}, nil
}

// DefaultTopK returns the fallback result count.
func (r *Retriever) DefaultTopK() int { return r.defaultTopK }

// BuildFromDocument segments doc, embeds every passage in one batch and
// builds an index whose entries follow passage order.
func (r *Retriever) BuildFromDocument(ctx context.Context, doc Document, chunkSize, overlap int) (*VectorIndex, error) {
	const op = "retriever.build"
	passages, err := Split(doc, chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	if len(passages) == 0 || strings.TrimSpace(doc.Text) == "" {
		return nil, Errorf(KindNoPassages, op, "document %q has no text", doc.ID)
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	vecs, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, embedFailure(op, err)
	}
	if len(vecs) != len(passages) {
		return nil, Errorf(KindEmbeddingUnavailable, op, "embedder returned %d vectors for %d passages", len(vecs), len(passages))
	}

	entries := make([]IndexEntry, len(passages))
	for i, p := range passages {
		entries[i] = IndexEntry{Passage: p, Vector: vecs[i]}
	}
	return BuildIndex(entries)
}

// Retrieve returns the k passages most similar to question, best first.
// k == 0 selects the default configured at construction.
func (r *Retriever) Retrieve(ctx context.Context, idx *VectorIndex, question string, k int) ([]Passage, error) {
	hits, err := r.RetrieveScored(ctx, idx, question, k)
	if err != nil {
		return nil, err
	}
	out := make([]Passage, len(hits))
	for i, h := range hits {
		out[i] = h.Passage
	}
	return out, nil
}

// RetrieveScored is Retrieve with similarity scores kept.
func (r *Retriever) RetrieveScored(ctx context.Context, idx *VectorIndex, question string, k int) ([]ScoredPassage, error) {
	const op = "retriever.retrieve"
	if idx == nil {
		return nil, NewError(KindNoIndexAvailable, op, nil)
	}
	if strings.TrimSpace(question) == "" {
		return nil, Errorf(KindEmptyInput, op, "question is empty")
	}
	if k == 0 {
		k = r.defaultTopK
	}

	q, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, embedFailure(op, err)
	}
	return idx.Search(q, k)
}

// embedFailure keeps an embedder's own classification and files anything
// unclassified under EmbeddingUnavailable.
func embedFailure(op string, err error) error {
	if KindOf(err) != "" {
		return fmt.Errorf("rag: %s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindEmbeddingUnavailable, Op: op, Msg: "embedding call abandoned", Err: err}
	}
	return NewError(KindEmbeddingUnavailable, op, err)
}
