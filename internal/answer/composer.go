// Package answer turns retrieved passages and a question into a bounded
// grounding prompt and obtains an answer from a Generator.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/realshak7781/pdfqa-go/internal/budget"
	"github.com/realshak7781/pdfqa-go/internal/rag"
)

// instructions opens every prompt.
const instructions = "Answer the question using only the numbered context passages below. " +
	"If the context does not contain the answer, say that you do not know."

// Generator produces a completion for a prompt.
// Implementations must be safe to call from multiple goroutines.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config tunes the composer.
type Config struct {
	// MaxContextTokens bounds the estimated size of the context section.
	// Zero selects budget.DefaultMaxContextTokens.
	MaxContextTokens int
}

// Truncation reports how the context was cut to fit the budget.
type Truncation struct {
	// Dropped is the number of lowest-ranked passages left out.
	Dropped int
	// HeadCut is set when the top passage alone exceeded the budget and was
	// shortened.
	HeadCut bool
}

// Truncated reports whether any context was lost.
func (t Truncation) Truncated() bool {
	return t.Dropped > 0 || t.HeadCut
}

// Composer builds prompts and delegates generation.
type Composer struct {
	gen       Generator
	maxTokens int
}

// NewComposer returns a Composer backed by gen.
func NewComposer(gen Generator, cfg *Config) (*Composer, error) {
	if gen == nil {
		return nil, fmt.Errorf("answer: generator must not be nil")
	}
	maxTokens := budget.DefaultMaxContextTokens
	if cfg != nil && cfg.MaxContextTokens > 0 {
		maxTokens = cfg.MaxContextTokens
	}
	return &Composer{gen: gen, maxTokens: maxTokens}, nil
}

// MaxContextTokens returns the effective context budget.
func (c *Composer) MaxContextTokens() int { return c.maxTokens }

// ComposePrompt renders the instructions, the passages in retrieval order
// and the question. Passages past the budget are dropped from the tail; if
// even the first one does not fit it is cut to the budget.
func (c *Composer) ComposePrompt(passages []rag.Passage, question string) (string, Truncation) {
	costs := make([]int, len(passages))
	for i, p := range passages {
		costs[i] = budget.Estimate(p.Text)
	}
	keep := budget.KeepWithin(costs, c.maxTokens)

	var tr Truncation
	texts := make([]string, 0, max(keep, 1))
	for _, p := range passages[:keep] {
		texts = append(texts, p.Text)
	}
	if keep == 0 && len(passages) > 0 {
		texts = append(texts, budget.TruncateToTokens(passages[0].Text, c.maxTokens))
		tr.HeadCut = true
		keep = 1
	}
	tr.Dropped = len(passages) - keep

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n## Context\n")
	if len(texts) == 0 {
		b.WriteString("\n(no context)\n")
	}
	for i, t := range texts {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, t)
	}
	b.WriteString("\n## Question\n\n")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n")
	return b.String(), tr
}

// Answer sends prompt to the generator. A deadline becomes GenerationTimeout,
// any other failure GenerationUnavailable. An empty completion is returned
// as-is.
func (c *Composer) Answer(ctx context.Context, prompt string) (string, error) {
	const op = "answer.generate"
	out, err := c.gen.Generate(ctx, prompt)
	if err == nil {
		return out, nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "", rag.NewError(rag.KindGenerationTimeout, op, err)
	case rag.KindOf(err) != "":
		return "", fmt.Errorf("answer: %w", err)
	default:
		return "", rag.NewError(rag.KindGenerationUnavailable, op, err)
	}
}
