package conversation

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/kailas-cloud/nutrirag/internal/domain"
	"github.com/kailas-cloud/nutrirag/internal/domain/conversation"
	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
	domrag "github.com/kailas-cloud/nutrirag/internal/domain/rag"
)

func TestAnalyze_Patterns(t *testing.T) {
	qualities := []float64{70, 90, 80}
	intents := []intent.Intent{intent.DiseaseNutrition, intent.DiseaseNutrition, intent.DietPlanning}
	i := 0
	p := &stubPipeline{fn: func(req domrag.Request) domrag.Response {
		defer func() { i++ }()
		return domrag.NewResponse(domrag.Params{
			Query:    req.Query,
			Answer:   "回答",
			Quality:  qualities[i],
			Duration: 3 * time.Second,
			Intent:   intents[i],
			Metadata: domrag.Metadata{State: domrag.Done},
		})
	}}
	m, clock := newTestManager(t, p, DefaultConfig())
	id := m.CreateSession("", nil)
	for _, q := range []string{"糖尿病吃什么", "血糖高怎么办", "一周食谱"} {
		clock.Advance(time.Minute)
		m.Process(context.Background(), id, q)
	}

	a, err := m.Analyze(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if a.Summary.TotalTurns != 3 || a.Summary.Duration != 3*time.Minute {
		t.Errorf("summary = %+v", a.Summary)
	}
	if a.Patterns.QualityTrend != TrendImproving {
		t.Errorf("trend = %q", a.Patterns.QualityTrend)
	}
	if a.Patterns.DominantIntent != intent.DiseaseNutrition || a.Patterns.IntentDiversity != 2 {
		t.Errorf("patterns = %+v", a.Patterns)
	}
	if a.Patterns.AverageProcessingTime != 3*time.Second {
		t.Errorf("avg time = %v", a.Patterns.AverageProcessingTime)
	}
	if a.Turns[0].InputLength != 6 || a.Turns[2].TurnID != 3 {
		t.Errorf("turns = %+v", a.Turns)
	}
	want := []string{RecSpeedUp}
	if !slices.Equal(a.Recommendations, want) {
		t.Errorf("recommendations = %v, want %v", a.Recommendations, want)
	}
}

func TestAnalyze_NoTurns(t *testing.T) {
	m, _ := newTestManager(t, &stubPipeline{}, DefaultConfig())
	id := m.CreateSession("", nil)
	if _, err := m.Analyze(context.Background(), id); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
	if _, err := m.Analyze(context.Background(), "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name string
		s    Summary
		p    Patterns
		want []string
	}{
		{
			name: "healthy",
			s:    Summary{TotalTurns: 5, AverageQuality: 85},
			p:    Patterns{IntentDiversity: 3, AverageProcessingTime: time.Second},
			want: nil,
		},
		{
			name: "short and narrow",
			s:    Summary{TotalTurns: 1, AverageQuality: 60},
			p:    Patterns{IntentDiversity: 1},
			want: []string{RecImproveQuality, RecWidenTopics, RecShortSession},
		},
		{
			name: "long",
			s:    Summary{TotalTurns: 16, AverageQuality: 90},
			p:    Patterns{IntentDiversity: 4},
			want: []string{RecLongSession},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recommend(tt.s, tt.p); !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPatterns_Trend(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   string
	}{
		{"declining", []float64{90, 0, 70}, TrendDeclining},
		{"stable", []float64{80, 80}, TrendStable},
		{"single scored turn", []float64{0, 80}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns := make([]conversation.Turn, len(tt.scores))
			for i, q := range tt.scores {
				turns[i] = conversation.Turn{ID: i + 1, Quality: q}
			}
			if got := patterns(turns).QualityTrend; got != tt.want {
				t.Errorf("trend = %q, want %q", got, tt.want)
			}
		})
	}
}
