package budget

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
)

func TestEstimate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},        // < 4 chars → 1
		{"abcd", 1},     // exactly 4 chars → 1
		{"abcde", 1},    // 5 chars → 1
		{"abcdefgh", 2}, // 8 chars → 2
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		got := Estimate(tc.input)
		if got != tc.want {
			t.Errorf("Estimate(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestEstimateMessages(t *testing.T) {
	t.Parallel()
	msgs := []*schema.Message{
		schema.SystemMessage("sys"),       // 4 + Estimate("system")=1 + 1 = 6
		schema.UserMessage("hello world"), // 4 + 1 + 2 = 7
	}
	if got := EstimateMessages(msgs); got != 13 {
		t.Errorf("EstimateMessages = %d, want 13", got)
	}
}

func TestKeepWithin(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		costs []int
		max   int
		want  int
	}{
		{"all fit", []int{10, 10, 10}, 30, 3},
		{"tail dropped", []int{10, 10, 10}, 25, 2},
		{"head alone too large", []int{50, 1}, 40, 0},
		{"empty", nil, 10, 0},
		{"zero budget", []int{1}, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := KeepWithin(tc.costs, tc.max); got != tc.want {
				t.Errorf("KeepWithin(%v, %d) = %d, want %d", tc.costs, tc.max, got, tc.want)
			}
		})
	}
}

func TestTruncateToTokens(t *testing.T) {
	t.Parallel()
	if got := TruncateToTokens("short", 10); got != "short" {
		t.Errorf("fitting text changed: %q", got)
	}
	if got := TruncateToTokens(strings.Repeat("x", 100), 5); len(got) != 20 {
		t.Errorf("want 20 bytes, got %d", len(got))
	}
	if got := TruncateToTokens("abc", 0); got != "" {
		t.Errorf("zero budget: %q", got)
	}

	// "é" is two bytes; a cut at byte 8 would land inside one.
	s := strings.Repeat("aé", 10)
	got := TruncateToTokens(s, 2)
	if !utf8.ValidString(got) {
		t.Errorf("cut split a character: %q", got)
	}
	if Estimate(got) > 2 || !strings.HasPrefix(s, got) {
		t.Errorf("bad cut %q", got)
	}
}
