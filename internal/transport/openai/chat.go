package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/domain"
)

// ChatClient sends prompts to an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	client   *openai.Client
	model    string
	user     string
	provider string
	logger   *zap.Logger
}

// NewChatClient creates a chat client. cfg.Model is the default model;
// cfg.Dimensions is ignored.
func NewChatClient(cfg *Config) *ChatClient {
	return &ChatClient{
		client:   newClient(cfg),
		model:    cfg.Model,
		user:     cfg.User,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Complete sends the prompt as a single user message and returns the first
// choice. An empty choice list wraps domain.ErrGenerationFailed.
func (c *ChatClient) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		User:        c.user,
	})
	if err != nil {
		c.logger.Warn("Chat completion failed",
			zap.String("provider", c.provider),
			zap.String("model", model),
			zap.Error(err),
		)
		return domain.ChatResponse{}, parseAPIError("chat", domain.ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return domain.ChatResponse{}, fmt.Errorf("chat response has no choices: %w", domain.ErrGenerationFailed)
	}

	c.logger.Debug("Chat completion",
		zap.String("model", model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return domain.ChatResponse{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}
