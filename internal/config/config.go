// Package config loads the per-environment YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Embedding and generation backends.
const (
	EmbeddingHash   = "hash"
	EmbeddingOpenAI = "openai"

	GenerationSimulated = "simulated"
	GenerationOpenAI    = "openai"
)

// Config holds the nutrirag configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Auth         AuthConfig         `yaml:"auth"`
	Logging      LoggingConfig      `yaml:"logging"`
	Redis        RedisConfig        `yaml:"redis"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Index        IndexConfig        `yaml:"index"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	Prompt       PromptConfig       `yaml:"prompt"`
	Generation   GenerationConfig   `yaml:"generation"`
	Quality      QualityConfig      `yaml:"quality"`
	Conversation ConversationConfig `yaml:"conversation"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// RedisConfig holds the optional Redis connection. Without addresses the
// service runs fully in memory.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a Redis connection is configured.
func (r RedisConfig) Enabled() bool { return len(r.Addrs) > 0 }

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Enabled reports whether any limit is set.
func (b BudgetConfig) Enabled() bool { return b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0 }

// EmbeddingConfig selects the embedder.
type EmbeddingConfig struct {
	Provider            string       `yaml:"provider"` // hash (default) | openai
	APIKey              string       `yaml:"api_key"`
	BaseURL             string       `yaml:"base_url"`
	Model               string       `yaml:"model"`
	Dimensions          int          `yaml:"dimensions"`
	DocumentInstruction string       `yaml:"document_instruction"`
	QueryInstruction    string       `yaml:"query_instruction"`
	Cache               bool         `yaml:"cache"`
	Budget              BudgetConfig `yaml:"budget"`
}

// IndexConfig locates the persisted index and the seed documents.
type IndexConfig struct {
	Dir      string `yaml:"dir"`
	SeedFile string `yaml:"seed_file"`
}

// RetrievalConfig holds the default retrieval parameters.
type RetrievalConfig struct {
	Strategy         string  `yaml:"strategy"`
	TopK             int     `yaml:"top_k"`
	Threshold        float64 `yaml:"similarity_threshold"`
	MaxContentLength int     `yaml:"max_content_length"`
	Rerank           *bool   `yaml:"enable_reranking"`
	SnippetLength    int     `yaml:"snippet_length"`
}

// PromptConfig holds prompt assembly settings.
type PromptConfig struct {
	UseFewShot    bool    `yaml:"use_few_shot"`
	DefaultIntent string  `yaml:"default_intent"`
	MinConfidence float64 `yaml:"min_confidence"`
	MaxExamples   int     `yaml:"max_examples"`
	HistoryTurns  int     `yaml:"history_turns"`
	TokenEncoding string  `yaml:"token_encoding"`
}

// GenerationConfig selects and tunes the answer backend.
type GenerationConfig struct {
	Backend           string       `yaml:"backend"` // simulated (default) | openai
	APIKey            string       `yaml:"api_key"`
	BaseURL           string       `yaml:"base_url"`
	Model             string       `yaml:"model"`
	MaxTokens         int          `yaml:"max_tokens"`
	Temperature       float32      `yaml:"temperature"`
	TimeoutSec        int          `yaml:"timeout_sec"`
	MaxResponseLength int          `yaml:"max_response_length"`
	Style             string       `yaml:"style"`
	Budget            BudgetConfig `yaml:"budget"`
}

// QualityConfig toggles answer scoring.
type QualityConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// ConversationConfig holds session lifecycle settings.
type ConversationConfig struct {
	IdleTimeoutMin   int   `yaml:"idle_timeout_min"`
	HistoryTurns     int   `yaml:"history_turns"`
	RecentTurns      int   `yaml:"recent_turns"`
	TerminateOnError *bool `yaml:"terminate_on_error"`
	RetentionMin     int   `yaml:"retention_min"`
	SweepIntervalSec int   `yaml:"sweep_interval_sec"`
	ArchiveTTLHours  int   `yaml:"archive_ttl_hours"`
}

// Load reads configuration from a YAML file by environment name (local, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

func boolPtr(b bool) *bool { return &b }

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = EmbeddingHash
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}

	if c.Index.Dir == "" {
		c.Index.Dir = "data/index"
	}
	if c.Index.SeedFile == "" {
		c.Index.SeedFile = "data/knowledge.json"
	}

	if c.Retrieval.Strategy == "" {
		c.Retrieval.Strategy = "semantic_only"
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 5
	}
	if c.Retrieval.Threshold == 0 {
		c.Retrieval.Threshold = 0.3
	}
	if c.Retrieval.MaxContentLength <= 0 {
		c.Retrieval.MaxContentLength = 500
	}
	if c.Retrieval.Rerank == nil {
		c.Retrieval.Rerank = boolPtr(true)
	}
	if c.Retrieval.SnippetLength <= 0 {
		c.Retrieval.SnippetLength = 150
	}

	if c.Prompt.DefaultIntent == "" {
		c.Prompt.DefaultIntent = "disease_nutrition"
	}
	if c.Prompt.MinConfidence == 0 {
		c.Prompt.MinConfidence = 0.5
	}
	if c.Prompt.MaxExamples <= 0 {
		c.Prompt.MaxExamples = 1
	}
	if c.Prompt.HistoryTurns <= 0 {
		c.Prompt.HistoryTurns = 3
	}

	if c.Generation.Backend == "" {
		c.Generation.Backend = GenerationSimulated
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 1000
	}
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = 0.7
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 30
	}
	if c.Generation.MaxResponseLength <= 0 {
		c.Generation.MaxResponseLength = 1000
	}
	if c.Generation.Style == "" {
		c.Generation.Style = "professional"
	}

	if c.Quality.Enabled == nil {
		c.Quality.Enabled = boolPtr(true)
	}

	if c.Conversation.IdleTimeoutMin <= 0 {
		c.Conversation.IdleTimeoutMin = 30
	}
	if c.Conversation.HistoryTurns <= 0 {
		c.Conversation.HistoryTurns = 3
	}
	if c.Conversation.RecentTurns <= 0 {
		c.Conversation.RecentTurns = 5
	}
	if c.Conversation.TerminateOnError == nil {
		c.Conversation.TerminateOnError = boolPtr(true)
	}
	if c.Conversation.RetentionMin <= 0 {
		c.Conversation.RetentionMin = 120
	}
	if c.Conversation.SweepIntervalSec <= 0 {
		c.Conversation.SweepIntervalSec = 60
	}
	if c.Conversation.ArchiveTTLHours <= 0 {
		c.Conversation.ArchiveTTLHours = 24 * 7
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	switch c.Embedding.Provider {
	case EmbeddingHash:
	case EmbeddingOpenAI:
		if c.Embedding.Model == "" {
			errs = append(errs, errors.New("embedding.model is required for the openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("embedding.provider must be %q or %q, got %q",
			EmbeddingHash, EmbeddingOpenAI, c.Embedding.Provider))
	}
	if c.Redis.DB < 0 || c.Redis.DB > 15 {
		errs = append(errs, fmt.Errorf("redis.db must be in [0,15], got %d", c.Redis.DB))
	}
	if c.Embedding.Cache && !c.Redis.Enabled() {
		errs = append(errs, errors.New("embedding.cache requires redis.addrs"))
	}
	if err := validateAction("embedding.budget.action", c.Embedding.Budget.Action); err != nil {
		errs = append(errs, err)
	}

	switch c.Retrieval.Strategy {
	case "semantic_only", "keyword_enhanced", "hybrid", "multi_query":
	default:
		errs = append(errs, fmt.Errorf("retrieval.strategy is unknown: %q", c.Retrieval.Strategy))
	}
	if c.Retrieval.Threshold < 0 || c.Retrieval.Threshold > 1 {
		errs = append(errs, fmt.Errorf("retrieval.similarity_threshold must be between 0 and 1, got %v",
			c.Retrieval.Threshold))
	}
	if c.Prompt.MinConfidence < 0 || c.Prompt.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("prompt.min_confidence must be between 0 and 1, got %v",
			c.Prompt.MinConfidence))
	}

	switch c.Generation.Backend {
	case GenerationSimulated:
	case GenerationOpenAI:
		if c.Generation.Model == "" {
			errs = append(errs, errors.New("generation.model is required for the openai backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("generation.backend must be %q or %q, got %q",
			GenerationSimulated, GenerationOpenAI, c.Generation.Backend))
	}
	switch c.Generation.Style {
	case "professional", "friendly", "detailed":
	default:
		errs = append(errs, fmt.Errorf("generation.style is unknown: %q", c.Generation.Style))
	}
	if err := validateAction("generation.budget.action", c.Generation.Budget.Action); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validateAction(field, action string) error {
	switch action {
	case "", "warn", "reject":
		return nil
	default:
		return fmt.Errorf("%s must be \"warn\" or \"reject\", got %q", field, action)
	}
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
