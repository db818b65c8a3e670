// Package embedder provides implementations of the rag.Embedder interface for
// converting text into dense vector embeddings. Ollama is reached over plain
// HTTP, OpenAI and Azure OpenAI through the go-openai SDK, Gemini through the
// genai SDK. HashEmbedder runs fully offline.
package embedder

import (
	"context"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/realshak7781/pdfqa-go/internal/rag"
)

// OpenAIEmbedder implements rag.Embedder using the OpenAI (or Azure OpenAI)
// embeddings API. It is safe for concurrent use.
type OpenAIEmbedder struct {
	// client is the go-openai client configured for OpenAI or Azure.
	client *openai.Client
	// model is the embedding model name or Azure deployment.
	model string
	// dimensions is the requested vector length (0 = model default).
	dimensions int
}

// OpenAIConfig holds the settings for constructing an OpenAIEmbedder.
type OpenAIConfig struct {
	// BaseURL is the API base URL. For OpenAI: "https://api.openai.com/v1".
	// For Azure: "https://<resource>.openai.azure.com".
	BaseURL string
	// APIKey is the authentication key.
	APIKey string
	// Model is the embedding model name (e.g. "text-embedding-3-small").
	Model string
	// Dimensions is the desired vector length (0 = model default).
	Dimensions int
	// Azure enables Azure OpenAI mode (api-key header + api-version param).
	Azure bool
	// APIVersion is the Azure OpenAI API version (e.g. "2025-04-01-preview").
	// Ignored when Azure is false.
	APIVersion string
	// Timeout bounds a single HTTP call (default 30s).
	Timeout time.Duration
}

// NewOpenAIEmbedder constructs an OpenAIEmbedder from the given config.
func NewOpenAIEmbedder(cfg *OpenAIConfig) *OpenAIEmbedder {
	var clientCfg openai.ClientConfig
	if cfg.Azure {
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			clientCfg.APIVersion = cfg.APIVersion
		}
		// Deployment names are used verbatim; the default mapper strips dots.
		clientCfg.AzureModelMapperFunc = func(model string) string { return model }
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (rag.Vector, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds all texts in one request. The API may return data out of
// order; results are placed by their index field.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]rag.Vector, error) {
	const op = "openai.embed"
	if len(texts) == 0 {
		return nil, nil
	}
	if err := checkNonEmpty(op, texts); err != nil {
		return nil, err
	}

	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, rag.NewError(rag.KindEmbeddingUnavailable, op, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, rag.Errorf(rag.KindEmbeddingUnavailable, op, "expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([]rag.Vector, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, rag.Errorf(rag.KindEmbeddingUnavailable, op, "index %d out of range [0, %d)", d.Index, len(texts))
		}
		if e.dimensions > 0 && len(d.Embedding) != e.dimensions {
			return nil, rag.Errorf(rag.KindDimensionMismatch, op, "got %d dimensions, want %d", len(d.Embedding), e.dimensions)
		}
		out[d.Index] = rag.Vector(d.Embedding)
	}
	for i, v := range out {
		if len(v) == 0 {
			return nil, rag.Errorf(rag.KindEmbeddingUnavailable, op, "no embedding returned for input %d", i)
		}
	}
	return out, nil
}

// Dimension returns the requested vector length.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimensions
}

// checkNonEmpty rejects zero-length inputs before any network call.
func checkNonEmpty(op string, texts []string) error {
	for i, t := range texts {
		if t == "" {
			return rag.Errorf(rag.KindEmptyInput, op, "input %d is empty", i)
		}
	}
	return nil
}
