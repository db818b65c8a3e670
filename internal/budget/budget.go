// Package budget provides token budget estimation for grounding prompts.
// Because pdfqa supports multiple LLM backends with different tokenizers,
// this package uses a conservative character-based heuristic:
// 1 token ≈ 4 bytes of English prose.
package budget

import (
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the byte-to-token ratio used for estimation.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default budget for retrieved context.
	// It fits within 8k-context models while leaving room for the question,
	// the instructions and the output. Override via MAX_CONTEXT_TOKENS.
	DefaultMaxContextTokens = 3000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// Each message has a small per-message overhead (~4 tokens in most APIs).
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// KeepWithin returns how many leading items of costs fit within maxTokens
// when summed. Items are ranked best first, so the tail is what gets dropped.
func KeepWithin(costs []int, maxTokens int) int {
	total := 0
	for i, c := range costs {
		if total+c > maxTokens {
			return i
		}
		total += c
	}
	return len(costs)
}

// TruncateToTokens cuts s so that Estimate(result) <= maxTokens, never
// splitting a multi-byte character. It returns s unchanged when it fits.
func TruncateToTokens(s string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	limit := maxTokens * charsPerToken
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
