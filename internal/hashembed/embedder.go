// Package hashembed is a deterministic, dependency-free embedder that maps
// token and character n-gram features into a fixed number of buckets with
// xxhash. It needs no model download and keeps the pipeline usable offline.
package hashembed

import (
	"context"
	"fmt"
	"math"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/nutrirag/internal/domain"
)

// DefaultDimensions is the vector size when none is configured.
const DefaultDimensions = 512

// Tokenizer segments text into words.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Embedder implements domain.Embedder with feature hashing.
type Embedder struct {
	dims      int
	tokenizer Tokenizer
	model     string
}

// New creates a hashing embedder. dims <= 0 uses DefaultDimensions.
func New(dims int, tokenizer Tokenizer) *Embedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{
		dims:      dims,
		tokenizer: tokenizer,
		model:     fmt.Sprintf("hashing-xxh64-%d", dims),
	}
}

// ModelName identifies the feature space for index compatibility checks.
func (e *Embedder) ModelName() string { return e.model }

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int { return e.dims }

// Embed returns an L2-normalized bag of hashed features. Word tokens weigh 1.0,
// Han character bigrams 0.5. An input without features yields a zero vector.
func (e *Embedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	vec := make([]float32, e.dims)

	features := 0
	if e.tokenizer != nil {
		for _, tok := range e.tokenizer.Tokenize(text) {
			e.add(vec, "w:"+tok, 1.0)
			features++
		}
	}

	var prev rune
	for _, r := range text {
		if !unicode.Is(unicode.Han, r) {
			prev = 0
			continue
		}
		if prev != 0 {
			e.add(vec, "b:"+string([]rune{prev, r}), 0.5)
			features++
		}
		prev = r
	}

	normalize(vec)
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: features, TotalTokens: features}, nil
}

// BatchEmbed embeds each text in turn.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		res, err := e.Embed(ctx, t)
		if err != nil {
			return domain.BatchEmbeddingResult{}, err
		}
		out.Embeddings[i] = res.Embedding
		out.TotalTokens += res.TotalTokens
		out.PromptTokens += res.PromptTokens
	}
	return out, nil
}

// HealthCheck always succeeds; there is no remote dependency.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

func (e *Embedder) add(vec []float32, feature string, weight float32) {
	h := xxhash.Sum64String(feature)
	vec[h%uint64(len(vec))] += weight
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}
