package embedder

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/realshak7781/pdfqa-go/internal/rag"
)

// GeminiEmbedder implements rag.Embedder with the Gemini embedContent API.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

// GeminiConfig holds the settings for constructing a GeminiEmbedder.
type GeminiConfig struct {
	// APIKey is the Google AI Studio key.
	APIKey string
	// Model is the embedding model (e.g. "text-embedding-004").
	Model string
	// Dimensions requests a reduced output size (0 = model default).
	Dimensions int
	// BaseURL overrides the API endpoint (empty = Google's default).
	BaseURL string
}

// NewGeminiEmbedder creates the genai client for the Gemini API backend.
func NewGeminiEmbedder(ctx context.Context, cfg *GeminiConfig) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedder: gemini requires GOOGLE_API_KEY or EMBEDDING_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: failed to create Gemini client: %w", err)
	}
	return &GeminiEmbedder{client: client, model: cfg.Model, dimensions: cfg.Dimensions}, nil
}

// Embed returns the embedding for a single text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) (rag.Vector, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds every text as its own content part in one request.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]rag.Vector, error) {
	const op = "gemini.embed"
	if len(texts) == 0 {
		return nil, nil
	}
	if err := checkNonEmpty(op, texts); err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	var cfg *genai.EmbedContentConfig
	if e.dimensions > 0 {
		d := int32(e.dimensions)
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &d}
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
	if err != nil {
		return nil, rag.NewError(rag.KindEmbeddingUnavailable, op, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, rag.Errorf(rag.KindEmbeddingUnavailable, op, "expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	out := make([]rag.Vector, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, rag.Errorf(rag.KindEmbeddingUnavailable, op, "empty embedding for input %d", i)
		}
		if e.dimensions > 0 && len(emb.Values) != e.dimensions {
			return nil, rag.Errorf(rag.KindDimensionMismatch, op, "got %d dimensions, want %d", len(emb.Values), e.dimensions)
		}
		out[i] = rag.Vector(emb.Values)
	}
	return out, nil
}

// Dimension returns the requested vector length.
func (e *GeminiEmbedder) Dimension() int {
	return e.dimensions
}
