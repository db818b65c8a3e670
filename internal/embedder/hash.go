package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/realshak7781/pdfqa-go/internal/rag"
)

// DefaultHashDimensions is the vector size used when none is configured.
const DefaultHashDimensions = 384

// HashEmbedder is a deterministic, offline embedder. It hashes lowercased
// word unigrams and bigrams into a signed feature vector and L2-normalizes
// it. Retrieval quality is lexical, but it needs no model server and is
// useful for local runs and tests.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns a HashEmbedder producing vectors of length dim.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDimensions
	}
	return &HashEmbedder{dim: dim}
}

// Embed hashes text into a unit vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) (rag.Vector, error) {
	if text == "" {
		return nil, rag.Errorf(rag.KindEmptyInput, "hash.embed", "input is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, rag.NewError(rag.KindEmbeddingUnavailable, "hash.embed", err)
	}

	v := make(rag.Vector, e.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for i, w := range words {
		e.add(v, w, 1)
		if i > 0 {
			e.add(v, words[i-1]+" "+w, 0.5)
		}
	}

	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum > 0 {
		inv := 1 / math.Sqrt(sum)
		for i := range v {
			v[i] = float32(float64(v[i]) * inv)
		}
	}
	return v, nil
}

// add folds feature into v with a sign taken from the hash.
func (e *HashEmbedder) add(v rag.Vector, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	if sum>>63 == 1 {
		weight = -weight
	}
	v[sum%uint64(e.dim)] += weight
}

// EmbedBatch embeds each text in order.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]rag.Vector, error) {
	out := make([]rag.Vector, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimension returns the fixed vector length.
func (e *HashEmbedder) Dimension() int {
	return e.dim
}
