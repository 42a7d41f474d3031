package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/domain"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

func chatServer(t *testing.T, choices []map[string]any, check func(chatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if check != nil {
			check(req)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   req.Model,
			"choices": choices,
			"usage": map[string]any{
				"prompt_tokens":     120,
				"completion_tokens": 30,
				"total_tokens":      150,
			},
		})
	}))
}

func newTestChat(url string) *ChatClient {
	return NewChatClient(&Config{
		APIKey:   "test-key",
		BaseURL:  url,
		Model:    "qwen-plus",
		Provider: "test",
		Logger:   zap.NewNop(),
	})
}

func TestChatClient_Complete(t *testing.T) {
	choices := []map[string]any{{
		"index":         0,
		"finish_reason": "stop",
		"message":       map[string]any{"role": "assistant", "content": "  少量多餐，控制主食。\n"},
	}}
	server := chatServer(t, choices, func(req chatRequest) {
		if req.Model != "qwen-plus" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "prompt text" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.MaxTokens != 800 {
			t.Errorf("max_tokens = %d", req.MaxTokens)
		}
	})
	defer server.Close()

	resp, err := newTestChat(server.URL).Complete(context.Background(), domain.ChatRequest{
		Prompt:      "prompt text",
		MaxTokens:   800,
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != "少量多餐，控制主食。" {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.PromptTokens != 120 || resp.CompletionTokens != 30 || resp.TotalTokens != 150 {
		t.Errorf("usage = %+v", resp)
	}
}

func TestChatClient_RequestModelOverrides(t *testing.T) {
	choices := []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "ok"}}}
	server := chatServer(t, choices, func(req chatRequest) {
		if req.Model != "other" {
			t.Errorf("model = %q, want other", req.Model)
		}
	})
	defer server.Close()

	if _, err := newTestChat(server.URL).Complete(context.Background(), domain.ChatRequest{Model: "other", Prompt: "p"}); err != nil {
		t.Fatal(err)
	}
}

func TestChatClient_NoChoices(t *testing.T) {
	server := chatServer(t, []map[string]any{}, nil)
	defer server.Close()

	_, err := newTestChat(server.URL).Complete(context.Background(), domain.ChatRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestChatClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "upstream down", "type": "server_error"},
		})
	}))
	defer server.Close()

	_, err := newTestChat(server.URL).Complete(context.Background(), domain.ChatRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Error("chat errors must not look like embedding errors")
	}
}
