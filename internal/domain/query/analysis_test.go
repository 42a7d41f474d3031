package query

import (
	"testing"

	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
)

func TestComplexityFromScore(t *testing.T) {
	tests := map[int]Complexity{0: Simple, 1: Simple, 2: Medium, 3: Complex, 4: Complex}
	for score, want := range tests {
		if got := ComplexityFromScore(score); got != want {
			t.Errorf("ComplexityFromScore(%d) = %s, want %s", score, got, want)
		}
	}
}

func TestAnalysis_Intents(t *testing.T) {
	a := Analysis{
		Primary: intent.Score{Intent: intent.FoodSelection, Confidence: 1},
		Candidates: []intent.Score{
			{Intent: intent.FoodSelection, Confidence: 1},
			{Intent: intent.DiseaseNutrition, Confidence: 0.33},
		},
	}
	got := a.Intents()
	if len(got) != 2 || got[0] != intent.FoodSelection || got[1] != intent.DiseaseNutrition {
		t.Errorf("Intents() = %v", got)
	}
	if !a.HasIntent(intent.DiseaseNutrition) {
		t.Error("expected disease intent present")
	}
	if a.HasIntent(intent.SymptomRelief) {
		t.Error("symptom intent must be absent")
	}
}

func TestAnalysis_GeneralIsNotAnIntentHit(t *testing.T) {
	a := Analysis{Primary: intent.Score{Intent: intent.General}}
	if a.HasIntent(intent.General) {
		t.Error("zero-confidence general must not count as a hit")
	}
	if len(a.Intents()) != 0 {
		t.Errorf("Intents() = %v, want empty", a.Intents())
	}
}
