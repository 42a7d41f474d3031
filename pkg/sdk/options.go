package nutrirag

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	redisAddrs    []string
	redisPassword string

	embedder   Embedder
	embedModel string
	dimensions int

	completer      Completer
	completerModel string
	style          string
	fewShot        bool

	documents []Document
	seedFile  string
	indexDir  string

	strategy  string
	topK      int
	threshold float64

	idleTimeout   time.Duration
	sweepInterval time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis archives ended sessions in Redis so their history and analysis
// stay readable after they leave memory.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithEmbedder sets the text embedding provider. model stamps the index so
// a persisted index built with another model is reported on load.
func WithEmbedder(e Embedder, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
		c.embedModel = model
	})
}

// WithDimensions sets the vector size of the built-in hashing embedder.
// Default: 512. Ignored with WithEmbedder.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithCompleter answers with a remote model. On failure or timeout the
// offline backend answers instead.
func WithCompleter(cc Completer, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cc
		c.completerModel = model
	})
}

// WithStyle sets the offline answer tone: "professional" (default),
// "friendly" or "detailed".
func WithStyle(style string) Option {
	return optionFunc(func(c *clientConfig) {
		c.style = style
	})
}

// WithFewShot prepends worked examples to every prompt.
func WithFewShot() Option {
	return optionFunc(func(c *clientConfig) {
		c.fewShot = true
	})
}

// WithDocuments adds knowledge documents to the index.
func WithDocuments(docs ...Document) Option {
	return optionFunc(func(c *clientConfig) {
		c.documents = append(c.documents, docs...)
	})
}

// WithSeedFile ingests a JSON array of documents when no persisted index is
// found in the index directory.
func WithSeedFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.seedFile = path
	})
}

// WithIndexDir loads a persisted index from dir, or saves the one built
// from the seed file there.
func WithIndexDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexDir = dir
	})
}

// WithRetrieval sets the retrieval strategy ("semantic_only",
// "keyword_enhanced", "hybrid" or "multi_query"), the number of sources and
// the minimum cosine similarity. Defaults: hybrid, 5, 0.2. Reranking by
// relevance stays on.
func WithRetrieval(strategy string, topK int, threshold float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.strategy = strategy
		c.topK = topK
		c.threshold = threshold
	})
}

// WithIdleTimeout sets how long a session may stay silent before it
// expires. Default: 30 minutes.
func WithIdleTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.idleTimeout = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
