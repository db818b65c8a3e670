// Package store persists metadata about every ingested document: its
// filename, extracted text and passage count. SQLite is the default backend;
// a postgres:// DSN selects PostgreSQL.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/realshak7781/pdfqa-go/internal/rag"
)

// Record is one stored document.
type Record struct {
	// ID is the store-assigned identifier.
	ID int64
	// Filename is the sanitized upload name.
	Filename string
	// Content is the extracted text. Empty in Recent listings.
	Content string
	// Bytes is the length of Content in bytes.
	Bytes int
	// PassageCount is the number of passages the document produced.
	PassageCount int
	// CreatedAt is when the record was persisted.
	CreatedAt time.Time
}

// DocumentStore persists document metadata. Implementations must be safe for
// concurrent use.
type DocumentStore interface {
	// Save stores a document and returns its ID.
	Save(ctx context.Context, filename, content string, passageCount int) (int64, error)
	// Get returns the full record for id, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Record, error)
	// Recent returns up to n records newest-first, without Content.
	Recent(ctx context.Context, n int) ([]Record, error)
	// Ping checks the database connection.
	Ping(ctx context.Context) error
	// Close releases any resources held by the store.
	Close() error
}

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = fmt.Errorf("store: document not found")

// DefaultDBPath returns the default SQLite path, ~/.pdfqa/pdfqa.db, creating
// the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".pdfqa")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "pdfqa.db"), nil
}

// Open picks a backend from dsn:
//   - empty: SQLite at DefaultDBPath
//   - postgres:// or postgresql://: PostgreSQL
//   - anything else: SQLite at that path (":memory:" for tests)
func Open(dsn string) (DocumentStore, error) {
	if dsn == "" {
		p, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		dsn = p
	}
	if IsPostgres(dsn) {
		return OpenPostgres(dsn)
	}
	return OpenSQLite(dsn)
}

// IsPostgres reports whether dsn selects the PostgreSQL backend.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Recorder adapts a DocumentStore to the pipeline publisher hook so every
// successful ingestion is recorded with its passage count.
type Recorder struct {
	Store DocumentStore
}

// Name identifies the recorder in logs.
func (r *Recorder) Name() string { return "metadata-store" }

// Publish saves doc with the passage count of idx.
func (r *Recorder) Publish(ctx context.Context, doc rag.Document, idx *rag.VectorIndex) error {
	if _, err := r.Store.Save(ctx, doc.ID, doc.Text, idx.Len()); err != nil {
		return err
	}
	return nil
}
