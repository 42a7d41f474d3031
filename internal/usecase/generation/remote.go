package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/nutrirag/internal/domain"
)

// Remote defaults.
const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
	remoteConfidence   = 0.9
)

// Remote delegates to a chat completion provider.
type Remote struct {
	client      ChatClient
	name        string
	model       string
	maxTokens   int
	temperature float32
}

// NewRemote creates a remote backend. name labels it in metrics, e.g. the provider.
func NewRemote(client ChatClient, name, model string, maxTokens int, temperature float32) *Remote {
	return &Remote{
		client:      client,
		name:        name,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Name implements Backend.
func (r *Remote) Name() string { return r.name }

// Generate sends the prompt as a single user message.
func (r *Remote) Generate(ctx context.Context, req Request) (Answer, error) {
	maxTokens := r.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	resp, err := r.client.Complete(ctx, domain.ChatRequest{
		Model:       r.model,
		Prompt:      req.Prompt,
		MaxTokens:   maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("%s completion: %w", r.name, err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return Answer{}, fmt.Errorf("%s returned an empty answer: %w", r.name, domain.ErrGenerationFailed)
	}
	return Answer{
		Text:       resp.Text,
		Confidence: remoteConfidence,
		Tokens:     resp.TotalTokens,
	}, nil
}
