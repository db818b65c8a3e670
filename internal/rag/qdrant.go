package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// qdrantUpsertBatch bounds the number of points per Upsert request.
const qdrantUpsertBatch = 256

// pointNamespace seeds the deterministic point ids derived from passages.
var pointNamespace = uuid.MustParse("6f1c2a4e-8d3b-4c5a-9e7f-1b2d3c4e5f60")

// QdrantConfig holds connection parameters for a Qdrant instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the collection that mirrors the current index.
	Collection string

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantMirror exports each published index into a Qdrant collection so the
// current passages can be inspected or served by other tools. The in-memory
// VectorIndex stays the source of truth for answers.
type QdrantMirror struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this mirror.
	cfg *QdrantConfig
}

// NewQdrantMirror creates the gRPC client. The collection is created lazily
// on the first Publish, once the vector dimension is known.
func NewQdrantMirror(cfg *QdrantConfig) (*QdrantMirror, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = "pdfqa"
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}
	return &QdrantMirror{client: client, cfg: cfg}, nil
}

// Name identifies the mirror in logs.
func (m *QdrantMirror) Name() string { return "qdrant" }

// Publish replaces the collection contents with the entries of idx. The
// collection is recreated so a dimension change between embedders is safe.
func (m *QdrantMirror) Publish(ctx context.Context, doc Document, idx *VectorIndex) error {
	if idx == nil {
		return NewError(KindNoIndexAvailable, "qdrant.publish", nil)
	}
	if err := m.resetCollection(ctx, uint64(idx.Dimension())); err != nil {
		return err
	}

	entries := idx.Entries()
	for start := 0; start < len(entries); start += qdrantUpsertBatch {
		end := min(start+qdrantUpsertBatch, len(entries))
		points := make([]*qdrant.PointStruct, 0, end-start)
		for _, e := range entries[start:end] {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(PointID(e.Passage).String()),
				Vectors: qdrant.NewVectors(e.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"content":     e.Passage.Text,
					"document_id": doc.ID,
					"index":       int64(e.Passage.Index),
					"start":       int64(e.Passage.Start),
					"end":         int64(e.Passage.End),
				}),
			})
		}
		if _, err := m.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: m.cfg.Collection,
			Points:         points,
		}); err != nil {
			return fmt.Errorf("qdrant: upsert failed: %w", err)
		}
	}
	return nil
}

// resetCollection drops the collection if present and creates it at dim.
func (m *QdrantMirror) resetCollection(ctx context.Context, dim uint64) error {
	exists, err := m.client.CollectionExists(ctx, m.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		if err := m.client.DeleteCollection(ctx, m.cfg.Collection); err != nil {
			return fmt.Errorf("qdrant: failed to drop collection %q: %w", m.cfg.Collection, err)
		}
	}
	err = m.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: m.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", m.cfg.Collection, err)
	}
	return nil
}

// Ping checks that the Qdrant server answers health checks.
func (m *QdrantMirror) Ping(ctx context.Context) error {
	if _, err := m.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (m *QdrantMirror) Close() error {
	return m.client.Close()
}

// PointID derives a stable UUID for a passage from its document and ordinal.
func PointID(p Passage) uuid.UUID {
	return uuid.NewSHA1(pointNamespace, fmt.Appendf(nil, "%s#%d", p.DocumentID, p.Index))
}
