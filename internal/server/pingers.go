package server

import (
	"context"
	"fmt"

	"github.com/realshak7781/pdfqa-go/internal/rag"
)

// EmbedderPinger probes the embedding backend. Backends exposing a
// Ping method (Ollama) are pinged directly; for the rest a one-word
// embedding is requested, which costs a few tokens on hosted APIs.
type EmbedderPinger struct {
	embedder rag.Embedder
	name     string
}

// NewEmbedderPinger constructs an EmbedderPinger labelled "embedder:<backend>".
func NewEmbedderPinger(e rag.Embedder, backend string) *EmbedderPinger {
	return &EmbedderPinger{embedder: e, name: "embedder:" + backend}
}

// Name returns the dependency label used in readiness responses.
func (p *EmbedderPinger) Name() string { return p.name }

// Ping checks that the embedder answers.
func (p *EmbedderPinger) Ping(ctx context.Context) error {
	if pinger, ok := unwrapPinger(p.embedder); ok {
		return pinger.Ping(ctx)
	}
	v, err := p.embedder.Embed(ctx, "ping")
	if err != nil {
		return fmt.Errorf("embed probe failed: %w", err)
	}
	if len(v) == 0 {
		return fmt.Errorf("embed probe returned an empty vector")
	}
	return nil
}

// unwrapPinger looks through wrappers such as embedder.Batched for a backend
// with its own Ping.
func unwrapPinger(e rag.Embedder) (interface{ Ping(context.Context) error }, bool) {
	for e != nil {
		if p, ok := e.(interface{ Ping(context.Context) error }); ok {
			return p, true
		}
		u, ok := e.(interface{ Unwrap() rag.Embedder })
		if !ok {
			return nil, false
		}
		e = u.Unwrap()
	}
	return nil, false
}

// StorePinger probes the metadata database.
type StorePinger struct {
	store interface{ Ping(context.Context) error }
}

// NewStorePinger constructs a StorePinger for any store with a Ping method.
func NewStorePinger(s interface{ Ping(context.Context) error }) *StorePinger {
	return &StorePinger{store: s}
}

// Name returns the dependency label used in readiness responses.
func (p *StorePinger) Name() string { return "database" }

// Ping checks the database connection.
func (p *StorePinger) Ping(ctx context.Context) error {
	return p.store.Ping(ctx)
}
