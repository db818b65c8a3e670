package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/realshak7781/pdfqa-go/internal/budget"
	"github.com/realshak7781/pdfqa-go/internal/logging"
)

// systemPrompt frames every answer.
const systemPrompt = "You are a careful assistant that answers questions about an uploaded document. " +
	"Ground every statement in the provided context and keep answers concise."

// ChatGenerator adapts an Eino chat model to the single-prompt Generate
// call used by the answer composer.
type ChatGenerator struct {
	model model.BaseChatModel
	name  string
}

// NewChatGenerator wraps m. name labels trace runs and log lines.
func NewChatGenerator(m model.BaseChatModel, name string) (*ChatGenerator, error) {
	if m == nil {
		return nil, fmt.Errorf("provider: chat model must not be nil")
	}
	return &ChatGenerator{model: m, name: name}, nil
}

// Generate sends the system prompt and prompt as one exchange and returns
// the completion text. Registered global callback handlers (e.g. Langfuse)
// observe the call.
func (g *ChatGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	}
	logging.FromContext(ctx).Debug("provider: generate",
		slog.String("model", g.name),
		slog.Int("prompt_tokens_est", budget.EstimateMessages(msgs)),
	)

	ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      "pdfqa-answer",
		Type:      g.name,
		Component: components.ComponentOfChatModel,
	})
	resp, err := g.model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("provider: generate: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Content, nil
}
