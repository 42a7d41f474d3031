// Package knowledge is the in-process embedding index over nutrition
// documents: flat inner-product search over unit vectors, persisted as a
// directory of three artifacts.
package knowledge

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/domain"
	"github.com/kailas-cloud/nutrirag/internal/domain/document"
)

// DefaultKeywordCount is how many keywords are extracted for documents
// ingested without any.
const DefaultKeywordCount = 10

// keyworder extracts keywords for documents that arrive without them (ISP).
type keyworder interface {
	ExtractKeywords(text string, k int) []string
}

// Stats describes the index contents.
type Stats struct {
	Documents int    `json:"total_documents"`
	Dimension int    `json:"dimension"`
	Model     string `json:"model_name"`
	Sealed    bool   `json:"sealed"`
}

// Index holds documents and their normalized vectors in insertion order.
// Writers run before Seal; after Seal the index is read-only.
type Index struct {
	mu        sync.RWMutex
	embedder  domain.Embedder
	queries   domain.Embedder
	keywords  keyworder
	model     string
	dim       int
	docs      []document.Document
	vectors   [][]float32
	positions map[string]int
	sealed    bool
	logger    *zap.Logger
}

// New creates an empty index. An empty model falls back to the embedder's
// own ModelName when it reports one.
func New(embedder domain.Embedder, model string, kw keyworder, logger *zap.Logger) *Index {
	if model == "" {
		if n, ok := embedder.(domain.Namer); ok {
			model = n.ModelName()
		}
	}
	return &Index{
		embedder:  embedder,
		queries:   embedder,
		keywords:  kw,
		model:     model,
		positions: make(map[string]int),
		logger:    logger,
	}
}

// WithQueryEmbedder encodes queries with e instead of the document
// embedder. Both must produce vectors in the same space.
func (ix *Index) WithQueryEmbedder(e domain.Embedder) *Index {
	ix.queries = e
	return ix
}

// Add inserts a document with a precomputed vector.
func (ix *Index) Add(doc document.Document, vec []float32) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.addLocked(doc, vec)
}

func (ix *Index) addLocked(doc document.Document, vec []float32) error {
	if ix.sealed {
		return domain.ErrIndexSealed
	}
	if len(vec) == 0 {
		return fmt.Errorf("document %s: empty vector: %w", doc.ID(), domain.ErrInvalidInput)
	}
	if ix.dim != 0 && len(vec) != ix.dim {
		return fmt.Errorf("document %s: got %d, want %d: %w",
			doc.ID(), len(vec), ix.dim, domain.ErrDimensionMismatch)
	}
	if _, dup := ix.positions[doc.ID()]; dup {
		return fmt.Errorf("document %s already indexed: %w", doc.ID(), domain.ErrInvalidInput)
	}

	if len(doc.Keywords()) == 0 && ix.keywords != nil {
		doc = doc.WithKeywords(ix.keywords.ExtractKeywords(doc.Text(), DefaultKeywordCount))
	}

	ix.dim = len(vec)
	ix.positions[doc.ID()] = len(ix.docs)
	ix.docs = append(ix.docs, doc)
	ix.vectors = append(ix.vectors, normalized(vec))
	return nil
}

// AddDocuments embeds and inserts documents in one batch. Returns the number
// of documents inserted before the first failure.
func (ix *Index) AddDocuments(ctx context.Context, docs []document.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	if ix.isSealed() {
		return 0, domain.ErrIndexSealed
	}

	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].Text()
	}
	res, err := domain.EmbedAll(ctx, ix.embedder, texts)
	if err != nil {
		return 0, fmt.Errorf("embed documents: %w", err)
	}
	if len(res.Embeddings) != len(docs) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d documents", len(res.Embeddings), len(docs))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i, doc := range docs {
		if err := ix.addLocked(doc, res.Embeddings[i]); err != nil {
			return i, err
		}
	}
	ix.logger.Info("Documents indexed",
		zap.Int("added", len(docs)),
		zap.Int("total", len(ix.docs)),
		zap.Int("tokens", res.TotalTokens),
	)
	return len(docs), nil
}

// Encode embeds a query text.
func (ix *Index) Encode(ctx context.Context, text string) ([]float32, error) {
	res, err := ix.queries.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return res.Embedding, nil
}

// Search embeds text and returns up to k nearest documents. Empty text or
// an empty index yields no hits and no error.
func (ix *Index) Search(ctx context.Context, text string, k int) ([]document.Hit, error) {
	if text == "" || k <= 0 || ix.Len() == 0 {
		return nil, nil
	}
	vec, err := ix.Encode(ctx, text)
	if err != nil {
		return nil, err
	}
	return ix.NearestNeighbors(vec, k)
}

// NearestNeighbors ranks all documents by cosine similarity to vec and
// returns the top min(k, n). Similarities are clamped to [0,1]; equal
// scores keep insertion order.
func (ix *Index) NearestNeighbors(vec []float32, k int) ([]document.Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := len(ix.docs)
	if n == 0 || k <= 0 {
		return nil, nil
	}
	if len(vec) != ix.dim {
		return nil, fmt.Errorf("query vector: got %d, want %d: %w", len(vec), ix.dim, domain.ErrDimensionMismatch)
	}

	q := normalized(vec)
	hits := make([]document.Hit, n)
	for i, row := range ix.vectors {
		hits[i] = document.Hit{Document: ix.docs[i], Similarity: clamp01(dot(q, row))}
	}
	slices.SortStableFunc(hits, func(a, b document.Hit) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		default:
			return 0
		}
	})
	return hits[:min(k, n)], nil
}

// Get returns a document by id.
func (ix *Index) Get(id string) (document.Document, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	pos, ok := ix.positions[id]
	if !ok {
		return document.Document{}, false
	}
	return ix.docs[pos], true
}

// Seal ends the write phase.
func (ix *Index) Seal() {
	ix.mu.Lock()
	ix.sealed = true
	ix.mu.Unlock()
}

func (ix *Index) isSealed() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.sealed
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Stats returns a snapshot of index metadata.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return Stats{Documents: len(ix.docs), Dimension: ix.dim, Model: ix.model, Sealed: ix.sealed}
}

// HealthCheck reports ErrIndexUnavailable for an empty index.
func (ix *Index) HealthCheck(context.Context) error {
	if ix.Len() == 0 {
		return fmt.Errorf("no documents loaded: %w", domain.ErrIndexUnavailable)
	}
	return nil
}

func normalized(v []float32) []float32 {
	out := slices.Clone(v)
	var sum float64
	for _, f := range out {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return out
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range out {
		out[i] *= inv
	}
	return out
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
