// Package rag implements the document-to-answer retrieval core: segmenting
// document text into overlapping passages, embedding them, holding them in an
// immutable in-memory vector index and answering top-k similarity queries.
// Transport, storage and model providers stay outside this package and are
// reached only through the Embedder interface.
package rag

import (
	"context"
)

// Vector is a dense embedding. All vectors in one index share a dimension.
type Vector []float32

// Document is a unit of extracted source text. It is immutable once built.
type Document struct {
	// ID identifies the source, normally the sanitized upload filename.
	ID string

	// Text is the full extracted text.
	Text string
}

// Passage is a contiguous slice of a Document. Start and End are byte
// offsets into Document.Text (half-open) and Text == doc.Text[Start:End].
type Passage struct {
	DocumentID string
	Index      int
	Start      int
	End        int
	Text       string
}

// IndexEntry pairs a passage with its embedding.
type IndexEntry struct {
	Passage Passage
	Vector  Vector
}

// ScoredPassage is a search hit. Score is the cosine similarity in [-1, 1].
type ScoredPassage struct {
	Passage Passage
	Score   float32
}

// Embedder converts text into dense vectors of a fixed dimension.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed returns the vector for a single non-empty text.
	Embed(ctx context.Context, text string) (Vector, error)

	// EmbedBatch returns one vector per input, in input order. It must be
	// observably equal to calling Embed for each item.
	EmbedBatch(ctx context.Context, texts []string) ([]Vector, error)

	// Dimension is the length of every vector this embedder produces, or 0
	// when it is only known after the first call.
	Dimension() int
}
