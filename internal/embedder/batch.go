package embedder

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/realshak7781/pdfqa-go/internal/rag"
)

// Batched splits large EmbedBatch calls into sub-batches of at most size
// texts and embeds up to concurrency sub-batches at once. Results keep input
// order. The first failing sub-batch cancels the rest.
type Batched struct {
	inner       rag.Embedder
	size        int
	concurrency int
}

// NewBatched wraps inner. Non-positive size or concurrency fall back to 64
// and 4.
func NewBatched(inner rag.Embedder, size, concurrency int) *Batched {
	if size <= 0 {
		size = 64
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Batched{inner: inner, size: size, concurrency: concurrency}
}

// Embed passes through to the wrapped embedder.
func (b *Batched) Embed(ctx context.Context, text string) (rag.Vector, error) {
	return b.inner.Embed(ctx, text)
}

// EmbedBatch fans sub-batches out over an errgroup.
func (b *Batched) EmbedBatch(ctx context.Context, texts []string) ([]rag.Vector, error) {
	if len(texts) <= b.size {
		return b.inner.EmbedBatch(ctx, texts)
	}

	out := make([]rag.Vector, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for start := 0; start < len(texts); start += b.size {
		end := min(start+b.size, len(texts))
		g.Go(func() error {
			vecs, err := b.inner.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vecs) != end-start {
				return rag.Errorf(rag.KindEmbeddingUnavailable, "batch.embed", "sub-batch [%d,%d) returned %d vectors", start, end, len(vecs))
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Dimension reports the wrapped embedder's dimension.
func (b *Batched) Dimension() int {
	return b.inner.Dimension()
}

// Unwrap returns the wrapped embedder.
func (b *Batched) Unwrap() rag.Embedder {
	return b.inner
}
