package request

import (
	"fmt"

	"github.com/kailas-cloud/nutrirag/internal/domain/search/strategy"
)

// Retrieval parameter limits.
const (
	DefaultTopK             = 5
	MaxTopK                 = 100
	DefaultThreshold        = 0.3
	DefaultMaxContentLength = 500
)

// Config is a validated retrieval configuration.
type Config struct {
	strategy         strategy.Strategy
	topK             int
	threshold        float64
	maxContentLength int
	rerank           bool
}

// New validates and normalizes retrieval parameters.
// Zero values fall back to defaults: semantic_only, topK=5, maxContentLength=500.
func New(
	s strategy.Strategy,
	topK int,
	threshold float64,
	maxContentLength int,
	rerank bool,
) (Config, error) {
	if s == "" {
		s = strategy.SemanticOnly
	}
	if !s.IsValid() {
		return Config{}, fmt.Errorf("invalid search strategy: %q", s)
	}
	if topK < 0 {
		return Config{}, fmt.Errorf("top_k must be positive, got %d", topK)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	if threshold < 0 || threshold > 1 {
		return Config{}, fmt.Errorf("similarity_threshold must be between 0 and 1, got %v", threshold)
	}
	if maxContentLength < 0 {
		return Config{}, fmt.Errorf("max_content_length must be positive, got %d", maxContentLength)
	}
	if maxContentLength == 0 {
		maxContentLength = DefaultMaxContentLength
	}

	return Config{
		strategy:         s,
		topK:             topK,
		threshold:        threshold,
		maxContentLength: maxContentLength,
		rerank:           rerank,
	}, nil
}

// Default returns semantic_only, topK=5, threshold=0.3, maxContentLength=500, reranking on.
func Default() Config {
	return Config{
		strategy:         strategy.SemanticOnly,
		topK:             DefaultTopK,
		threshold:        DefaultThreshold,
		maxContentLength: DefaultMaxContentLength,
		rerank:           true,
	}
}

// Strategy returns the candidate gathering strategy.
func (c *Config) Strategy() strategy.Strategy { return c.strategy }

// TopK returns the maximum number of results.
func (c *Config) TopK() int { return c.topK }

// Threshold returns the minimum similarity a hit must reach.
func (c *Config) Threshold() float64 { return c.threshold }

// MaxContentLength returns the content truncation limit in characters.
func (c *Config) MaxContentLength() int { return c.maxContentLength }

// Rerank reports whether results are sorted by relevance score.
func (c *Config) Rerank() bool { return c.rerank }
