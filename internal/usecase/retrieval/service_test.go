package retrieval

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/kailas-cloud/nutrirag/internal/domain"
	"github.com/kailas-cloud/nutrirag/internal/domain/document"
	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
	"github.com/kailas-cloud/nutrirag/internal/domain/query"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/request"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/strategy"
)

const q = "糖尿病老人应该怎么控制饮食？"

func TestSearch_SemanticFetchesDoubleTopK(t *testing.T) {
	idx := &mockIndex{def: []document.Hit{hit(t, "a", "", 0.9)}}
	svc := newTestService(idx, diabetesAnalysis())

	if _, err := svc.Search(context.Background(), q, mustConfig(t, strategy.SemanticOnly, 3, 0.3, 500, true)); err != nil {
		t.Fatal(err)
	}
	if len(idx.calls) != 1 || idx.calls[0].k != 6 || idx.calls[0].text != q {
		t.Errorf("calls = %+v", idx.calls)
	}
}

func TestSearch_KeywordEnhancedUsesLeadingKeywords(t *testing.T) {
	idx := &mockIndex{def: []document.Hit{hit(t, "a", "", 0.9)}}
	svc := newTestService(idx, diabetesAnalysis())

	if _, err := svc.Search(context.Background(), q, mustConfig(t, strategy.KeywordEnhanced, 2, 0.3, 500, true)); err != nil {
		t.Fatal(err)
	}
	if len(idx.calls) != 1 || idx.calls[0].text != "糖尿病 饮食 老人" || idx.calls[0].k != 4 {
		t.Errorf("calls = %+v", idx.calls)
	}
}

func TestSearch_KeywordEnhancedWithoutKeywords(t *testing.T) {
	idx := &mockIndex{def: []document.Hit{hit(t, "a", "", 0.9)}}
	svc := newTestService(idx, query.Analysis{})

	if _, err := svc.Search(context.Background(), "随便问问", mustConfig(t, strategy.KeywordEnhanced, 2, 0.3, 500, true)); err != nil {
		t.Fatal(err)
	}
	if idx.calls[0].text != "随便问问" {
		t.Errorf("expected fallback to raw query, got %q", idx.calls[0].text)
	}
}

func TestSearch_HybridIsDeduplicatedUnion(t *testing.T) {
	idx := &mockIndex{byQuery: map[string][]document.Hit{
		q:           {hit(t, "a", "", 0.9), hit(t, "b", "", 0.8)},
		"糖尿病 饮食 老人": {hit(t, "b", "", 0.8), hit(t, "c", "", 0.7)},
	}}
	svc := newTestService(idx, diabetesAnalysis())

	res, err := svc.Search(context.Background(), q, mustConfig(t, strategy.Hybrid, 5, 0.3, 500, false))
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range res {
		ids = append(ids, r.ID())
	}
	if strings.Join(ids, ",") != "a,b,c" {
		t.Errorf("ids = %v, want a,b,c in first-seen order", ids)
	}
}

func TestVariants(t *testing.T) {
	svc := newTestService(&mockIndex{}, query.Analysis{})

	tests := []struct {
		name string
		a    query.Analysis
		want []string
	}{
		{
			name: "disease with keywords",
			a: query.Analysis{
				Original: "糖尿病吃什么", Clean: "糖尿病吃什么",
				Keywords: []string{"糖尿病", "饮食"},
				Primary:  intent.Score{Intent: intent.DiseaseNutrition, Confidence: 1.0 / 3},
			},
			want: []string{"糖尿病吃什么", "糖尿病 饮食", "糖尿病吃什么 饮食 营养"},
		},
		{
			name: "nutrient single keyword",
			a: query.Analysis{
				Original: "缺钙", Clean: "缺钙",
				Keywords:   []string{"缺钙"},
				Candidates: []intent.Score{{Intent: intent.NutrientDeficiency, Confidence: 1.0 / 3}},
			},
			want: []string{"缺钙", "老年人 缺钙"},
		},
		{
			name: "general",
			a:    query.Analysis{Original: "你好", Clean: "你好"},
			want: []string{"你好"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := svc.Variants(tc.a)
			if strings.Join(got, "|") != strings.Join(tc.want, "|") {
				t.Errorf("Variants() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSearch_MultiQueryMergesVariants(t *testing.T) {
	idx := &mockIndex{byQuery: map[string][]document.Hit{
		q:           {hit(t, "a", "", 0.9)},
		"糖尿病 饮食 老人": {hit(t, "a", "", 0.9), hit(t, "b", "", 0.6)},
		diabetesAnalysis().Clean + " 饮食 营养": {hit(t, "c", "", 0.5)},
	}}
	svc := newTestService(idx, diabetesAnalysis())

	res, err := svc.Search(context.Background(), q, mustConfig(t, strategy.MultiQuery, 5, 0.3, 500, false))
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.calls) != 3 {
		t.Fatalf("expected 3 variant searches, got %d", len(idx.calls))
	}
	for _, c := range idx.calls {
		if c.k != 5 {
			t.Errorf("variant %q fetched k=%d, want top_k", c.text, c.k)
		}
	}
	if len(res) != 3 {
		t.Errorf("expected 3 unique results, got %d", len(res))
	}
}

func TestSearch_ThresholdTopKAndNoDuplicates(t *testing.T) {
	idx := &mockIndex{def: []document.Hit{
		hit(t, "a", "", 0.95), hit(t, "b", "", 0.9), hit(t, "c", "", 0.85),
		hit(t, "d", "", 0.2), hit(t, "e", "", 0.1),
	}}
	svc := newTestService(idx, diabetesAnalysis())

	for _, s := range []strategy.Strategy{strategy.SemanticOnly, strategy.KeywordEnhanced, strategy.Hybrid, strategy.MultiQuery} {
		t.Run(string(s), func(t *testing.T) {
			res, err := svc.Search(context.Background(), q, mustConfig(t, s, 2, 0.3, 500, true))
			if err != nil {
				t.Fatal(err)
			}
			if len(res) > 2 {
				t.Errorf("len = %d, want <= top_k", len(res))
			}
			seen := map[string]bool{}
			for _, r := range res {
				if seen[r.ID()] {
					t.Errorf("duplicate id %s", r.ID())
				}
				seen[r.ID()] = true
				if r.Similarity() < 0.3 {
					t.Errorf("result %s below threshold", r.ID())
				}
			}
		})
	}
}

func TestSearch_RerankByRelevance(t *testing.T) {
	idx := &mockIndex{def: []document.Hit{
		hit(t, "plain", "其他", 0.80),
		hit(t, "matching", "疾病营养", 0.70, "糖尿病", "饮食", "老人", "控制"),
	}}
	svc := newTestService(idx, diabetesAnalysis())

	res, err := svc.Search(context.Background(), q, mustConfig(t, strategy.SemanticOnly, 2, 0.3, 500, true))
	if err != nil {
		t.Fatal(err)
	}
	if res[0].ID() != "matching" {
		t.Fatalf("expected keyword/category match to rank first, got %s", res[0].ID())
	}
	want := 0.6*0.70 + 0.3*1 + 0.1*1
	if math.Abs(res[0].Relevance()-want) > 1e-9 {
		t.Errorf("relevance = %f, want %f", res[0].Relevance(), want)
	}
	if math.Abs(res[1].Relevance()-0.6*0.80) > 1e-9 {
		t.Errorf("plain relevance = %f", res[1].Relevance())
	}

	noRerank, err := svc.Search(context.Background(), q, mustConfig(t, strategy.SemanticOnly, 2, 0.3, 500, false))
	if err != nil {
		t.Fatal(err)
	}
	if noRerank[0].ID() != "plain" {
		t.Errorf("without reranking the retrieval order must be kept, got %s first", noRerank[0].ID())
	}
	if noRerank[1].Relevance() == 0 {
		t.Error("relevance is computed even without reranking")
	}
}

func TestRelevance_MonotonicInSimilarity(t *testing.T) {
	svc := newTestService(&mockIndex{}, query.Analysis{})
	a := diabetesAnalysis()
	prev := -1.0
	for _, sim := range []float64{0, 0.1, 0.3, 0.5, 0.9, 1} {
		r := svc.relevance(a, hit(t, "x", "疾病营养", sim, "糖尿病"))
		if r < prev {
			t.Fatalf("relevance decreased at similarity %f", sim)
		}
		prev = r
	}
}

func TestSearch_TruncatesContentAndBuildsSnippet(t *testing.T) {
	long := strings.Repeat("多吃蔬菜", 50)
	d, _ := document.New("long", "蔬菜", long, "膳食指南", "", nil)
	idx := &mockIndex{def: []document.Hit{{Document: d, Similarity: 0.9}}}
	svc := newTestService(idx, diabetesAnalysis())

	res, err := svc.Search(context.Background(), q, mustConfig(t, strategy.SemanticOnly, 1, 0.3, 20, true))
	if err != nil {
		t.Fatal(err)
	}
	if got := res[0].Content(); got != string([]rune(long)[:20])+"..." {
		t.Errorf("content = %q", got)
	}
	if res[0].Snippet() != res[0].Content() {
		t.Errorf("short content is its own snippet, got %q", res[0].Snippet())
	}
}

func TestMakeSnippet(t *testing.T) {
	svc := newTestService(&mockIndex{}, query.Analysis{})

	sentence := strings.Repeat("营", 99) + "。"
	withStop := sentence + strings.Repeat("养", 100)
	if got := svc.makeSnippet(withStop); got != sentence {
		t.Errorf("expected cut after full stop, got %d runes", len([]rune(got)))
	}

	early := strings.Repeat("营", 10) + "。" + strings.Repeat("养", 200)
	got := svc.makeSnippet(early)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != DefaultSnippetRunes+3 {
		t.Errorf("expected hard cut with ellipsis, got %d runes", len([]rune(got)))
	}

	if svc.makeSnippet("短内容") != "短内容" {
		t.Error("short content must be returned unchanged")
	}
}

func TestSearch_EmptyQueryOrIndex(t *testing.T) {
	idx := &mockIndex{def: []document.Hit{hit(t, "a", "", 0.9)}}
	svc := newTestService(idx, diabetesAnalysis())

	res, err := svc.Search(context.Background(), "   ", mustConfig(t, strategy.Hybrid, 3, 0.3, 500, true))
	if err != nil || len(res) != 0 {
		t.Errorf("empty query: %v, %v", res, err)
	}
	if len(idx.calls) != 0 {
		t.Error("empty query must not hit the index")
	}

	empty := newTestService(&mockIndex{}, diabetesAnalysis())
	res, err = empty.Search(context.Background(), q, mustConfig(t, strategy.Hybrid, 3, 0.3, 500, true))
	if err != nil || len(res) != 0 {
		t.Errorf("empty index: %v, %v", res, err)
	}
}

func TestSearch_IndexErrorIsWrapped(t *testing.T) {
	idx := &mockIndex{size: 1, err: errors.New("embedding provider down")}
	svc := newTestService(idx, diabetesAnalysis())

	_, err := svc.Search(context.Background(), q, mustConfig(t, strategy.SemanticOnly, 3, 0.3, 500, true))
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestSearch_ZeroConfigUsesDefaults(t *testing.T) {
	idx := &mockIndex{def: []document.Hit{hit(t, "a", "", 0.9)}}
	svc := newTestService(idx, diabetesAnalysis())

	if _, err := svc.Search(context.Background(), q, request.Config{}); err != nil {
		t.Fatal(err)
	}
	if idx.calls[0].k != 10 {
		t.Errorf("expected default top_k 5 doubled, got k=%d", idx.calls[0].k)
	}
}

func TestStats(t *testing.T) {
	svc := newTestService(&mockIndex{size: 7}, query.Analysis{})
	st := svc.Stats()
	if st.Documents != 7 || st.Strategy != strategy.SemanticOnly || st.TopK != 5 {
		t.Errorf("Stats() = %+v", st)
	}
}
