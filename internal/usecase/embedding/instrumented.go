package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/domain"
)

// DefaultMaxAPIBatchSize caps the texts sent in one provider request.
const DefaultMaxAPIBatchSize = 256

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}

// InstrumentedEmbedder guards an embedder with a token budget and logs each
// call. Request counters live in transport/openai; the tracker owns the
// remaining-budget gauge.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. budget may be nil.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		logger:   logger.With(zap.String("provider", provider), zap.String("model", model)),
	}
}

// Embed encodes a single passage or query.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	if err := p.admit(ctx, "single", 1); err != nil {
		return domain.EmbeddingResult{}, err
	}

	began := time.Now()
	res, err := p.inner.Embed(ctx, text)
	took := time.Since(began)
	if err != nil {
		p.logger.Error("embedding failed", zap.Duration("took", took), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.charge(res.TotalTokens)
	p.logger.Debug("embedded text",
		zap.Duration("took", took),
		zap.Int("dims", len(res.Embedding)),
		zap.Int("tokens", res.TotalTokens),
	)
	return res, nil
}

// BatchEmbed encodes texts in provider-sized slices. The budget is consulted
// before every slice so an index rebuild stops as soon as it runs dry.
func (p *InstrumentedEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	began := time.Now()
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	for lo := 0; lo < len(texts); lo += DefaultMaxAPIBatchSize {
		hi := min(lo+DefaultMaxAPIBatchSize, len(texts))
		if err := p.admit(ctx, "batch", hi-lo); err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("slice at %d: %w", lo, err)
		}

		part, err := p.embedSlice(ctx, texts[lo:hi])
		if err != nil {
			p.logger.Error("batch embedding failed",
				zap.Int("offset", lo), zap.Int("size", hi-lo), zap.Error(err))
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		out.Embeddings = append(out.Embeddings, part.Embeddings...)
		out.PromptTokens += part.PromptTokens
		out.TotalTokens += part.TotalTokens
		p.charge(part.TotalTokens)
	}

	p.logger.Debug("embedded batch",
		zap.Duration("took", time.Since(began)),
		zap.Int("texts", len(texts)),
		zap.Int("tokens", out.TotalTokens),
	)
	return out, nil
}

// admit rejects the call when the budget is spent.
func (p *InstrumentedEmbedder) admit(ctx context.Context, kind string, n int) error {
	if p.budget == nil {
		return nil
	}
	if err := p.budget.Check(ctx); err != nil {
		p.logger.Warn("embedding budget exhausted",
			zap.String("kind", kind), zap.Int("texts", n), zap.Error(err))
		return fmt.Errorf("budget check: %w", err)
	}
	return nil
}

func (p *InstrumentedEmbedder) embedSlice(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if be, ok := p.inner.(domain.BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("inner batch embed: %w", err)
		}
		return res, nil
	}
	res, err := domain.EmbedAll(ctx, p.inner, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("inner sequential embed: %w", err)
	}
	return res, nil
}

func (p *InstrumentedEmbedder) charge(tokens int) {
	if p.budget != nil && tokens > 0 {
		p.budget.Record(int64(tokens))
	}
}

// ModelName returns the configured model.
func (p *InstrumentedEmbedder) ModelName() string { return p.model }

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
