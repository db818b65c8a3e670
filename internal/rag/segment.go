package rag

import (
	"iter"
	"slices"
	"unicode/utf8"
)

// Segment returns a lazy sequence of overlapping passages covering doc.Text.
// Windows are chunkSize characters long and advance by chunkSize-overlap
// characters; the final window may be shorter. Ranging the sequence more than
// once yields identical passages. Empty text yields an empty sequence.
func Segment(doc Document, chunkSize, overlap int) (iter.Seq[Passage], error) {
	if err := validateWindow(chunkSize, overlap); err != nil {
		return nil, err
	}
	text := doc.Text
	step := chunkSize - overlap

	return func(yield func(Passage) bool) {
		if text == "" {
			return
		}
		offsets := runeOffsets(text)
		n := len(offsets) - 1
		for i, start := 0, 0; ; i, start = i+1, start+step {
			end := min(start+chunkSize, n)
			p := Passage{
				DocumentID: doc.ID,
				Index:      i,
				Start:      offsets[start],
				End:        offsets[end],
				Text:       text[offsets[start]:offsets[end]],
			}
			if !yield(p) || end == n {
				return
			}
		}
	}, nil
}

// Split collects Segment into a slice.
func Split(doc Document, chunkSize, overlap int) ([]Passage, error) {
	seq, err := Segment(doc, chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

// Count returns how many passages Segment yields for a text of n characters.
func Count(n, chunkSize, overlap int) int {
	switch {
	case n <= 0:
		return 0
	case n <= chunkSize:
		return 1
	}
	step := chunkSize - overlap
	return (n - overlap + step - 1) / step
}

func validateWindow(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return Errorf(KindInvalidParameter, "segment", "chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return Errorf(KindInvalidParameter, "segment", "overlap must be in [0, %d), got %d", chunkSize, overlap)
	}
	return nil
}

// runeOffsets returns the byte offset of every character in s plus a final
// entry equal to len(s).
func runeOffsets(s string) []int {
	offsets := make([]int, 0, utf8.RuneCountInString(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	return append(offsets, len(s))
}
