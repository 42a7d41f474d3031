package retrieval

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/domain/document"
	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
	"github.com/kailas-cloud/nutrirag/internal/domain/query"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/request"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/strategy"
)

// mockIndex returns canned hits per query text and records every call.
type mockIndex struct {
	byQuery map[string][]document.Hit
	def     []document.Hit
	err     error
	size    int
	calls   []indexCall
}

type indexCall struct {
	text string
	k    int
}

func (m *mockIndex) Search(_ context.Context, text string, k int) ([]document.Hit, error) {
	m.calls = append(m.calls, indexCall{text: text, k: k})
	if m.err != nil {
		return nil, m.err
	}
	hits, ok := m.byQuery[text]
	if !ok {
		hits = m.def
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockIndex) Len() int {
	if m.size > 0 {
		return m.size
	}
	return len(m.def) + len(m.byQuery)
}

type fixedAnalyzer struct {
	analysis query.Analysis
}

func (f fixedAnalyzer) Analyze(q string) query.Analysis {
	a := f.analysis
	a.Original = q
	return a
}

func hit(t *testing.T, id, category string, sim float64, keywords ...string) document.Hit {
	t.Helper()
	d, err := document.New(id, id+" title", id+" content", category, "test", keywords)
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}
	return document.Hit{Document: d, Similarity: sim}
}

func mustConfig(t *testing.T, s strategy.Strategy, topK int, threshold float64, maxLen int, rerank bool) request.Config {
	t.Helper()
	cfg, err := request.New(s, topK, threshold, maxLen, rerank)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return cfg
}

func diabetesAnalysis() query.Analysis {
	return query.Analysis{
		Clean:    "糖尿病老人应该怎么控制饮食？",
		Keywords: []string{"糖尿病", "饮食", "老人", "控制"},
		Primary:  intent.Score{Intent: intent.DiseaseNutrition, Confidence: 2.0 / 3},
		Candidates: []intent.Score{
			{Intent: intent.DiseaseNutrition, Confidence: 2.0 / 3},
		},
	}
}

func newTestService(idx Index, a query.Analysis) *Service {
	return New(idx, fixedAnalyzer{analysis: a}, request.Default(), zap.NewNop())
}
