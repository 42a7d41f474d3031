package embcache

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/nutrirag/internal/db"
	"github.com/kailas-cloud/nutrirag/internal/domain"
)

// vocabEmbedder returns a one-dimensional vector per text and 2 tokens per
// text, counting how many texts reached it.
type vocabEmbedder struct {
	vectors map[string]float32
	err     error
	seen    []string
}

func (e *vocabEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	e.seen = append(e.seen, text)
	return domain.EmbeddingResult{Embedding: []float32{e.vectors[text]}, PromptTokens: 2, TotalTokens: 2}, nil
}

func (e *vocabEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var out domain.BatchEmbeddingResult
	for _, t := range texts {
		r, err := e.Embed(ctx, t)
		if err != nil {
			return domain.BatchEmbeddingResult{}, err
		}
		out.Embeddings = append(out.Embeddings, r.Embedding)
		out.PromptTokens += r.PromptTokens
		out.TotalTokens += r.TotalTokens
	}
	return out, nil
}

func (e *vocabEmbedder) ModelName() string { return "vocab" }

// memStore is an in-memory Get/SetWithTTL store.
type memStore struct {
	mu     sync.Mutex
	values map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}
