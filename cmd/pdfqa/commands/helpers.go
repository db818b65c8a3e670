package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/realshak7781/pdfqa-go/internal/answer"
	"github.com/realshak7781/pdfqa-go/internal/embedder"
	"github.com/realshak7781/pdfqa-go/internal/pipeline"
	"github.com/realshak7781/pdfqa-go/internal/provider"
	"github.com/realshak7781/pdfqa-go/internal/rag"
	"github.com/realshak7781/pdfqa-go/internal/store"
)

// components is everything a command needs to ingest and answer.
type components struct {
	controller *pipeline.Controller
	embedder   rag.Embedder
	backend    string
	cfg        *pipeline.Config
}

// buildComponents wires embedder → retriever, chat model → composer, and both
// into a pipeline controller with the given publishers.
func buildComponents(ctx context.Context, log *slog.Logger, publishers ...pipeline.Publisher) (*components, error) {
	cfg, err := pipeline.ConfigFromEnv()
	if err != nil {
		return nil, err
	}

	if err := embedder.ValidateConfig(log); err != nil {
		return nil, err
	}
	emb, err := embedder.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	backend := embedder.Backend()
	log.Info("embedder initialised",
		slog.String("backend", backend),
		slog.Int("dimensions", emb.Dimension()),
	)

	retriever, err := rag.NewRetriever(emb, cfg.TopK)
	if err != nil {
		return nil, err
	}

	providerCfg := provider.ConfigFromEnv()
	chatModel, err := provider.New(ctx, providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	gen, err := provider.NewChatGenerator(chatModel, providerCfg.ModelName())
	if err != nil {
		return nil, err
	}
	log.Info("provider initialised",
		slog.String("provider", string(providerCfg.Backend)),
		slog.String("model", providerCfg.ModelName()),
	)

	composer, err := answer.NewComposer(gen, &answer.Config{MaxContextTokens: cfg.MaxContextTokens})
	if err != nil {
		return nil, err
	}

	ctrl, err := pipeline.New(retriever, composer, cfg, publishers...)
	if err != nil {
		return nil, err
	}
	return &components{controller: ctrl, embedder: emb, backend: backend, cfg: cfg}, nil
}

// openQdrant returns the Qdrant mirror when QDRANT_HOST is set, nil otherwise.
func openQdrant(log *slog.Logger) (*rag.QdrantMirror, error) {
	host := os.Getenv("QDRANT_HOST")
	if host == "" {
		log.Info("qdrant mirror disabled", slog.String("reason", "QDRANT_HOST not set"))
		return nil, nil
	}
	m, err := rag.NewQdrantMirror(&rag.QdrantConfig{
		Host:       host,
		Port:       getEnvInt("QDRANT_PORT", 6334),
		Collection: getEnvOrDefault("QDRANT_COLLECTION", "pdfqa"),
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, err
	}
	log.Info("qdrant mirror enabled",
		slog.String("host", host),
		slog.String("collection", getEnvOrDefault("QDRANT_COLLECTION", "pdfqa")),
	)
	return m, nil
}

// openStore opens the metadata store named by PDFQA_DB. "disabled" turns it
// off; an empty value uses ~/.pdfqa/pdfqa.db. Failures are logged and the
// store is skipped, because answering does not depend on it.
func openStore(log *slog.Logger) store.DocumentStore {
	dsn := os.Getenv("PDFQA_DB")
	if dsn == "disabled" {
		log.Info("metadata store disabled via PDFQA_DB=disabled")
		return nil
	}
	s, err := store.Open(dsn)
	if err != nil {
		log.Warn("metadata store unavailable, continuing without it", slog.Any("error", err))
		return nil
	}
	backend := "sqlite"
	if store.IsPostgres(dsn) {
		backend = "postgres"
	}
	log.Info("metadata store opened", slog.String("backend", backend))
	return s
}

// getEnvOrDefault returns the value of key, or fallback if unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns key parsed as an int, or fallback if unset or malformed.
func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// getEnvFloat returns key parsed as a float64, or fallback if unset or malformed.
func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}
