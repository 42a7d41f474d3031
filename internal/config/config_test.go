package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

func TestApplyDefaults(t *testing.T) {
	c := validConfig()

	if c.HTTP.Port != 8080 || c.Embedding.Provider != EmbeddingHash || c.Generation.Backend != GenerationSimulated {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.Retrieval.Strategy != "semantic_only" || c.Retrieval.TopK != 5 || c.Retrieval.Threshold != 0.3 {
		t.Errorf("retrieval defaults: %+v", c.Retrieval)
	}
	if c.Retrieval.Rerank == nil || !*c.Retrieval.Rerank {
		t.Error("reranking should default to on")
	}
	if c.Prompt.MinConfidence != 0.5 || c.Prompt.DefaultIntent != "disease_nutrition" {
		t.Errorf("prompt defaults: %+v", c.Prompt)
	}
	if c.Conversation.IdleTimeoutMin != 30 || !*c.Conversation.TerminateOnError {
		t.Errorf("conversation defaults: %+v", c.Conversation)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_KeepsExplicitFalse(t *testing.T) {
	off := false
	c := Config{Conversation: ConversationConfig{TerminateOnError: &off}, Quality: QualityConfig{Enabled: &off}}
	c.ApplyDefaults()
	if *c.Conversation.TerminateOnError || *c.Quality.Enabled {
		t.Error("explicit false overwritten by defaults")
	}
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	c := validConfig()
	c.Generation.Budget = BudgetConfig{DailyTokenLimit: 1000000, Action: "invalid_action"}

	err := c.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `generation.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	for _, action := range []string{"", "warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			c := validConfig()
			c.Embedding.Budget.Action = action
			c.Generation.Budget.Action = action
			if err := c.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"unknown embedder", func(c *Config) { c.Embedding.Provider = "bert" }, "embedding.provider"},
		{"openai embedder without model", func(c *Config) { c.Embedding.Provider = EmbeddingOpenAI }, "embedding.model"},
		{"cache without redis", func(c *Config) { c.Embedding.Cache = true }, "embedding.cache"},
		{"redis db out of range", func(c *Config) { c.Redis.DB = 16 }, "redis.db"},
		{"unknown strategy", func(c *Config) { c.Retrieval.Strategy = "bm25" }, "retrieval.strategy"},
		{"threshold out of range", func(c *Config) { c.Retrieval.Threshold = 1.5 }, "similarity_threshold"},
		{"min confidence out of range", func(c *Config) { c.Prompt.MinConfidence = -0.1 }, "prompt.min_confidence"},
		{"unknown backend", func(c *Config) { c.Generation.Backend = "llama" }, "generation.backend"},
		{"openai backend without model", func(c *Config) { c.Generation.Backend = GenerationOpenAI }, "generation.model"},
		{"unknown style", func(c *Config) { c.Generation.Style = "casual" }, "generation.style"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("NUTRIRAG_TEST_KEY", "sk-123")

	in := "a: ${NUTRIRAG_TEST_KEY}\nb: ${NUTRIRAG_TEST_MISSING:-fallback}\nc: ${NUTRIRAG_TEST_MISSING}\n"
	got := string(expandEnvVars([]byte(in)))
	want := "a: sk-123\nb: fallback\nc: \n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("NUTRIRAG_TEST_PORT", "9090")
	path := filepath.Join(t.TempDir(), "test.yaml")
	data := `
http:
  port: ${NUTRIRAG_TEST_PORT}
retrieval:
  strategy: hybrid
  enable_reranking: false
conversation:
  terminate_on_error: false
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.HTTP.Port != 9090 || c.Retrieval.Strategy != "hybrid" {
		t.Errorf("cfg = %+v", c)
	}
	if *c.Retrieval.Rerank || *c.Conversation.TerminateOnError {
		t.Error("explicit false values lost")
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("generation:\n  backend: llama\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}

func TestLoad_Local(t *testing.T) {
	c, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if c.Embedding.Provider != EmbeddingHash || c.Generation.Backend != GenerationSimulated {
		t.Errorf("local config should run offline: %+v", c)
	}
}
