package pipeline

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/realshak7781/pdfqa-go/internal/budget"
)

// Config holds the tunables of the ingest and answer paths.
type Config struct {
	// ChunkSize is the passage window length in characters.
	ChunkSize int
	// ChunkOverlap is the number of characters shared by consecutive passages.
	ChunkOverlap int
	// TopK is the number of passages retrieved when a request does not say.
	TopK int
	// MaxContextTokens bounds the estimated size of the prompt context.
	MaxContextTokens int
	// AnswerTimeout bounds one Answer call, embedding and generation included.
	AnswerTimeout time.Duration
	// IngestTimeout bounds one Ingest call. A build that runs out of time is
	// abandoned and never published.
	IngestTimeout time.Duration
	// PublishTimeout bounds each Publisher call after a swap.
	PublishTimeout time.Duration
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:        1000,
		ChunkOverlap:     200,
		TopK:             3,
		MaxContextTokens: budget.DefaultMaxContextTokens,
		AnswerTimeout:    60 * time.Second,
		IngestTimeout:    5 * time.Minute,
		PublishTimeout:   30 * time.Second,
	}
}

// ConfigFromEnv overlays environment variables on DefaultConfig:
//
//	CHUNK_SIZE, CHUNK_OVERLAP, RETRIEVAL_TOP_K, MAX_CONTEXT_TOKENS,
//	ANSWER_TIMEOUT, INGEST_TIMEOUT, PUBLISH_TIMEOUT (Go durations, e.g. "90s")
//
// Malformed values are reported rather than silently ignored.
func ConfigFromEnv() (*Config, error) {
	cfg := DefaultConfig()
	ints := []struct {
		key string
		dst *int
	}{
		{"CHUNK_SIZE", &cfg.ChunkSize},
		{"CHUNK_OVERLAP", &cfg.ChunkOverlap},
		{"RETRIEVAL_TOP_K", &cfg.TopK},
		{"MAX_CONTEXT_TOKENS", &cfg.MaxContextTokens},
	}
	for _, e := range ints {
		if v := os.Getenv(e.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("pipeline: %s=%q is not an integer", e.key, v)
			}
			*e.dst = n
		}
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"ANSWER_TIMEOUT", &cfg.AnswerTimeout},
		{"INGEST_TIMEOUT", &cfg.IngestTimeout},
		{"PUBLISH_TIMEOUT", &cfg.PublishTimeout},
	}
	for _, e := range durations {
		if v := os.Getenv(e.key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("pipeline: %s=%q is not a duration: %w", e.key, v, err)
			}
			*e.dst = d
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the window and limits.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("pipeline: CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("pipeline: CHUNK_OVERLAP must be in [0, %d), got %d", c.ChunkSize, c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("pipeline: RETRIEVAL_TOP_K must be positive, got %d", c.TopK)
	}
	if c.MaxContextTokens <= 0 {
		return fmt.Errorf("pipeline: MAX_CONTEXT_TOKENS must be positive, got %d", c.MaxContextTokens)
	}
	if c.AnswerTimeout <= 0 || c.IngestTimeout <= 0 || c.PublishTimeout <= 0 {
		return fmt.Errorf("pipeline: timeouts must be positive")
	}
	return nil
}
