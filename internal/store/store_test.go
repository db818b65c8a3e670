package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/realshak7781/pdfqa-go/internal/rag"
)

// openTestStore opens an in-memory SQLiteStore for use in tests.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveAndGet(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, "report.pdf", "The cat sat.", 3)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.Filename != "report.pdf" || r.Content != "The cat sat." || r.PassageCount != 3 || r.Bytes != 12 {
		t.Errorf("record = %+v", r)
	}
	if r.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestStore_GetUnknown(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	if _, err := s.Get(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestStore_RecentNewestFirst(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for i := range 5 {
		if _, err := s.Save(ctx, fmt.Sprintf("doc-%d.txt", i), "héllo", i); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	recs, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("want 3 records, got %d", len(recs))
	}
	for i, want := range []string{"doc-4.txt", "doc-3.txt", "doc-2.txt"} {
		if recs[i].Filename != want {
			t.Errorf("recs[%d] = %q, want %q", i, recs[i].Filename, want)
		}
		if recs[i].Content != "" {
			t.Error("Recent should not load content")
		}
		if recs[i].Bytes != 6 {
			t.Errorf("Bytes = %d, want 6", recs[i].Bytes)
		}
	}
}

func TestStore_EmptyRecent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	recs, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("want 0 records, got %d", len(recs))
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestOpen_SQLiteFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "pdfqa.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("want *SQLiteStore, got %T", s)
	}
	if !IsPostgres("postgres://u@h/db") || !IsPostgres("postgresql://u@h/db") || IsPostgres(path) {
		t.Error("IsPostgres misclassified a DSN")
	}
}

func TestRecorder_Publish(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	idx, err := rag.BuildIndex([]rag.IndexEntry{
		{Passage: rag.Passage{DocumentID: "a.txt", Index: 0}, Vector: rag.Vector{1, 0}},
		{Passage: rag.Passage{DocumentID: "a.txt", Index: 1}, Vector: rag.Vector{0, 1}},
	})
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	rec := &Recorder{Store: s}
	if err := rec.Publish(context.Background(), rag.Document{ID: "a.txt", Text: "ab"}, idx); err != nil {
		t.Fatalf("publish: %v", err)
	}
	recs, _ := s.Recent(context.Background(), 1)
	if len(recs) != 1 || recs[0].Filename != "a.txt" || recs[0].PassageCount != 2 {
		t.Errorf("recorded %+v", recs)
	}
}
