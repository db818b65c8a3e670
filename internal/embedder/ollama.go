package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/realshak7781/pdfqa-go/internal/rag"
)

// OllamaEmbedder implements rag.Embedder using the Ollama /api/embed endpoint.
// It is safe for concurrent use. No API key is required — Ollama runs locally.
type OllamaEmbedder struct {
	// host is the Ollama server base URL (e.g. "http://localhost:11434").
	host string
	// model is the embedding model name (e.g. "nomic-embed-text").
	model string
	// dimensions is the expected vector length; 0 learns it from the first reply.
	dimensions atomic.Int64
	// client is the shared HTTP client with a sensible timeout.
	client *http.Client
}

// OllamaConfig holds the settings for constructing an OllamaEmbedder.
type OllamaConfig struct {
	// Host is the Ollama server base URL (e.g. "http://localhost:11434").
	Host string
	// Model is the embedding model name (e.g. "nomic-embed-text").
	Model string
	// Dimensions is the expected vector length (0 = accept what the model returns).
	Dimensions int
	// Timeout bounds a single HTTP call (default 60s).
	Timeout time.Duration
}

// NewOllamaEmbedder constructs an OllamaEmbedder from the given config.
func NewOllamaEmbedder(cfg *OllamaConfig) *OllamaEmbedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	e := &OllamaEmbedder{
		host:   cfg.Host,
		model:  cfg.Model,
		client: &http.Client{Timeout: timeout},
	}
	e.dimensions.Store(int64(cfg.Dimensions))
	return e
}

// ollamaEmbedRequest is the JSON body sent to the Ollama /api/embed endpoint.
type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// ollamaEmbedResponse is the JSON body returned from the Ollama /api/embed endpoint.
type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Embed returns the embedding for a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) (rag.Vector, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends all texts in one /api/embed call. The returned slice is
// parallel to the input slice.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]rag.Vector, error) {
	const op = "ollama.embed"
	if len(texts) == 0 {
		return nil, nil
	}
	if err := checkNonEmpty(op, texts); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, rag.NewError(rag.KindEmbeddingUnavailable, op, err)
	}
	defer resp.Body.Close()

	var result ollamaEmbedResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if decodeErr == nil && result.Error != "" {
			msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, result.Error)
		}
		return nil, rag.Errorf(rag.KindEmbeddingUnavailable, op, "%s", msg)
	}
	if decodeErr != nil {
		return nil, &rag.Error{Kind: rag.KindEmbeddingUnavailable, Op: op, Msg: "decode response", Err: decodeErr}
	}
	if len(result.Embeddings) != len(texts) {
		return nil, rag.Errorf(rag.KindEmbeddingUnavailable, op, "expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}

	out := make([]rag.Vector, len(result.Embeddings))
	for i, v := range result.Embeddings {
		if err := e.checkDimension(op, len(v)); err != nil {
			return nil, err
		}
		out[i] = rag.Vector(v)
	}
	return out, nil
}

// Dimension returns the configured or learned vector length.
func (e *OllamaEmbedder) Dimension() int {
	return int(e.dimensions.Load())
}

// Ping checks that the Ollama server is reachable.
func (e *OllamaEmbedder) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.host+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("ollama embedder: create request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama embedder: unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama embedder: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// checkDimension enforces the configured dimension, or learns it on the
// first successful reply.
func (e *OllamaEmbedder) checkDimension(op string, got int) error {
	if got == 0 {
		return rag.Errorf(rag.KindEmbeddingUnavailable, op, "model returned an empty vector")
	}
	if e.dimensions.CompareAndSwap(0, int64(got)) {
		return nil
	}
	if want := e.Dimension(); got != want {
		return rag.Errorf(rag.KindDimensionMismatch, op, "model returned %d dimensions, want %d", got, want)
	}
	return nil
}
