package nutrirag

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/nutrirag/internal/domain"
)

// Completer answers a rendered prompt with a language model.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// CompletionRequest is one single-turn completion call.
type CompletionRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Completion is the model output plus billed usage.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// completerAdapter wraps public Completer to satisfy generation.ChatClient.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	c, err := a.inner.Complete(ctx, CompletionRequest{
		Model:       req.Model,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("complete: %w", err)
	}
	return domain.ChatResponse{
		Text:             c.Text,
		PromptTokens:     c.PromptTokens,
		CompletionTokens: c.CompletionTokens,
		TotalTokens:      c.PromptTokens + c.CompletionTokens,
	}, nil
}
