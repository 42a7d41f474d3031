// Package retrieval runs a search strategy against the knowledge index,
// filters by similarity, reranks by a composite relevance score and
// returns a bounded list of results.
package retrieval

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/domain"
	"github.com/kailas-cloud/nutrirag/internal/domain/document"
	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
	"github.com/kailas-cloud/nutrirag/internal/domain/query"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/request"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/result"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/strategy"
)

// Relevance weights.
const (
	similarityWeight = 0.6
	keywordWeight    = 0.3
	categoryWeight   = 0.1
)

// DefaultSnippetRunes is the snippet window.
const DefaultSnippetRunes = 150

const (
	ellipsis          = "..."
	keywordQueryTerms = 3
)

// DefaultCategories maps intents to the knowledge categories that count as
// a category match.
func DefaultCategories() map[intent.Intent][]string {
	return map[intent.Intent][]string{
		intent.DiseaseNutrition:   {"疾病营养", "特殊人群"},
		intent.NutrientDeficiency: {"营养素", "营养原则"},
		intent.FoodSelection:      {"食物选择"},
		intent.SymptomRelief:      {"健康问题"},
		intent.DietPlanning:       {"膳食指南", "营养原则"},
	}
}

// Stats describes the retriever configuration and index size.
type Stats struct {
	Strategy         strategy.Strategy `json:"strategy"`
	TopK             int               `json:"top_k"`
	Threshold        float64           `json:"similarity_threshold"`
	MaxContentLength int               `json:"max_content_length"`
	Rerank           bool              `json:"enable_reranking"`
	Documents        int               `json:"total_documents"`
}

// Service is the retriever. It holds no per-call state.
type Service struct {
	index      Index
	analyzer   Analyzer
	defaults   request.Config
	categories map[intent.Intent][]string
	snippet    int
	logger     *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCategories replaces the intent to category map.
func WithCategories(m map[intent.Intent][]string) Option {
	return func(s *Service) { s.categories = m }
}

// WithSnippetRunes sets the snippet window.
func WithSnippetRunes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.snippet = n
		}
	}
}

// New creates a retriever with defaults used when a call passes a zero Config.
func New(index Index, analyzer Analyzer, defaults request.Config, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		index:      index,
		analyzer:   analyzer,
		defaults:   defaults,
		categories: DefaultCategories(),
		snippet:    DefaultSnippetRunes,
		logger:     logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Defaults returns the configured retrieval parameters.
func (s *Service) Defaults() request.Config { return s.defaults }

// Search analyzes q and retrieves with cfg.
func (s *Service) Search(ctx context.Context, q string, cfg request.Config) ([]result.Result, error) {
	return s.SearchAnalyzed(ctx, s.analyzer.Analyze(q), cfg)
}

// SearchAnalyzed retrieves for an already analyzed query. The result has at
// most cfg.TopK() entries and no duplicate ids. An empty query or an empty
// index returns no results and no error.
func (s *Service) SearchAnalyzed(ctx context.Context, a query.Analysis, cfg request.Config) ([]result.Result, error) {
	if cfg.TopK() == 0 {
		cfg = s.defaults
	}
	if strings.TrimSpace(a.Original) == "" || s.index.Len() == 0 {
		return nil, nil
	}

	hits, err := s.collect(ctx, a, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}

	out := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		if h.Similarity < cfg.Threshold() {
			continue
		}
		content := truncateRunes(h.Document.Content(), cfg.MaxContentLength())
		out = append(out, result.New(
			h.Document, content, h.Similarity,
			s.relevance(a, h), s.makeSnippet(content),
		))
	}

	if cfg.Rerank() {
		slices.SortStableFunc(out, func(x, y result.Result) int {
			switch {
			case x.Relevance() > y.Relevance():
				return -1
			case x.Relevance() < y.Relevance():
				return 1
			default:
				return 0
			}
		})
	}

	if len(out) > cfg.TopK() {
		out = out[:cfg.TopK()]
	}

	s.logger.Debug("Retrieval completed",
		zap.String("strategy", string(cfg.Strategy())),
		zap.Int("candidates", len(hits)),
		zap.Int("results", len(out)),
	)
	return out, nil
}

// collect runs the configured strategy and returns deduplicated hits in
// first-seen order.
func (s *Service) collect(ctx context.Context, a query.Analysis, cfg request.Config) ([]document.Hit, error) {
	k := cfg.TopK()
	switch cfg.Strategy() {
	case strategy.KeywordEnhanced:
		return s.keywordSearch(ctx, a, k*2)
	case strategy.Hybrid:
		semantic, err := s.index.Search(ctx, a.Original, k*2)
		if err != nil {
			return nil, fmt.Errorf("semantic search: %w", err)
		}
		keyword, err := s.keywordSearch(ctx, a, k*2)
		if err != nil {
			return nil, err
		}
		return union(semantic, keyword), nil
	case strategy.MultiQuery:
		var merged []document.Hit
		for _, v := range s.Variants(a) {
			hits, err := s.index.Search(ctx, v, k)
			if err != nil {
				return nil, fmt.Errorf("variant %q: %w", v, err)
			}
			merged = union(merged, hits)
		}
		return merged, nil
	default:
		hits, err := s.index.Search(ctx, a.Original, k*2)
		if err != nil {
			return nil, fmt.Errorf("semantic search: %w", err)
		}
		return hits, nil
	}
}

// keywordSearch queries with the leading keywords joined by spaces and
// falls back to the raw query when no keywords were extracted.
func (s *Service) keywordSearch(ctx context.Context, a query.Analysis, k int) ([]document.Hit, error) {
	text := a.Original
	if len(a.Keywords) > 0 {
		text = strings.Join(a.Keywords[:min(keywordQueryTerms, len(a.Keywords))], " ")
	}
	hits, err := s.index.Search(ctx, text, k)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return hits, nil
}

// Variants expands a query for the multi_query strategy: the original text,
// the leading keywords when there are at least two, a diet-oriented form for
// disease questions and an elderly-oriented form for nutrient questions.
func (s *Service) Variants(a query.Analysis) []string {
	variants := []string{a.Original}
	if len(a.Keywords) >= 2 {
		variants = append(variants, strings.Join(a.Keywords[:min(keywordQueryTerms, len(a.Keywords))], " "))
	}
	if a.HasIntent(intent.DiseaseNutrition) {
		variants = append(variants, a.Clean+" 饮食 营养")
	}
	if a.HasIntent(intent.NutrientDeficiency) {
		variants = append(variants, "老年人 "+a.Clean)
	}
	return variants
}

// relevance is 0.6*similarity + 0.3*keyword overlap ratio + 0.1*category match.
func (s *Service) relevance(a query.Analysis, h document.Hit) float64 {
	return similarityWeight*h.Similarity +
		keywordWeight*keywordOverlap(a.Keywords, h.Document.Keywords()) +
		categoryWeight*s.categoryMatch(a, h.Document.Category())
}

func keywordOverlap(queryKW, docKW []string) float64 {
	if len(queryKW) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(queryKW))
	for _, k := range queryKW {
		set[k] = struct{}{}
	}
	matched := 0
	for k := range set {
		if slices.Contains(docKW, k) {
			matched++
		}
	}
	return float64(matched) / float64(len(set))
}

func (s *Service) categoryMatch(a query.Analysis, category string) float64 {
	if category == "" {
		return 0
	}
	for _, in := range a.Intents() {
		if slices.Contains(s.categories[in], category) {
			return 1
		}
	}
	return 0
}

// makeSnippet keeps whole sentences when the last full stop in the window
// lies past its middle, otherwise cuts and appends an ellipsis.
func (s *Service) makeSnippet(content string) string {
	runes := []rune(content)
	if len(runes) <= s.snippet {
		return content
	}
	window := runes[:s.snippet]
	if i := lastIndexRune(window, '。'); i > s.snippet/2 {
		return string(window[:i+1])
	}
	return string(window) + ellipsis
}

// Stats reports configuration and index size.
func (s *Service) Stats() Stats {
	return Stats{
		Strategy:         s.defaults.Strategy(),
		TopK:             s.defaults.TopK(),
		Threshold:        s.defaults.Threshold(),
		MaxContentLength: s.defaults.MaxContentLength(),
		Rerank:           s.defaults.Rerank(),
		Documents:        s.index.Len(),
	}
}

func union(base, more []document.Hit) []document.Hit {
	seen := make(map[string]struct{}, len(base)+len(more))
	out := make([]document.Hit, 0, len(base)+len(more))
	for _, list := range [][]document.Hit{base, more} {
		for _, h := range list {
			id := h.Document.ID()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, h)
		}
	}
	return out
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + ellipsis
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
