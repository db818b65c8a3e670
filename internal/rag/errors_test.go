package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestError_IsAndKindOf(t *testing.T) {
	t.Parallel()
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("pipeline: ingest: %w", NewError(KindEmbeddingUnavailable, "embed", cause))

	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Error("errors.Is should match the kind sentinel through wrapping")
	}
	if errors.Is(err, ErrGenerationUnavailable) {
		t.Error("errors.Is matched an unrelated sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the underlying cause")
	}
	if k := KindOf(err); k != KindEmbeddingUnavailable {
		t.Errorf("KindOf = %q", k)
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	t.Parallel()
	if k := KindOf(nil); k != "" {
		t.Errorf("KindOf(nil) = %q", k)
	}
	if k := KindOf(context.Canceled); k != "" {
		t.Errorf("KindOf(context.Canceled) = %q", k)
	}
	if k := KindOf(fmt.Errorf("wrap: %w", ErrBuildInProgress)); k != KindBuildInProgress {
		t.Errorf("bare sentinel: KindOf = %q", k)
	}
}

func TestError_Message(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  *Error
		want string
	}{
		{Errorf(KindInvalidParameter, "segment", "chunk size must be positive, got %d", 0), "segment [invalid_parameter]: chunk size must be positive, got 0"},
		{NewError(KindEmptyIndex, "index.build", nil), "index.build [empty_index]: index has no entries"},
		{NewError(KindNoIndexAvailable, "", nil), "no_index_available: no index available"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error() = %q, want %q", got, tc.want)
		}
	}
}

func TestPointID_Deterministic(t *testing.T) {
	t.Parallel()
	a := PointID(Passage{DocumentID: "a.pdf", Index: 3})
	b := PointID(Passage{DocumentID: "a.pdf", Index: 3})
	c := PointID(Passage{DocumentID: "a.pdf", Index: 4})
	if a != b {
		t.Error("same passage produced different ids")
	}
	if a == c {
		t.Error("different passages share an id")
	}
}
