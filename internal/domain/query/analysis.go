// Package query holds the features derived from a raw user query.
package query

import "github.com/kailas-cloud/nutrirag/internal/domain/intent"

// Complexity is a coarse query difficulty tier.
type Complexity string

// Complexity tiers.
const (
	Simple  Complexity = "simple"
	Medium  Complexity = "medium"
	Complex Complexity = "complex"
)

// ComplexityFromScore maps an integer score to a tier: <=1 simple, <=2 medium, else complex.
func ComplexityFromScore(score int) Complexity {
	switch {
	case score <= 1:
		return Simple
	case score <= 2:
		return Medium
	default:
		return Complex
	}
}

// Analysis is the derived view of one query.
type Analysis struct {
	Original        string
	Clean           string
	Tokens          []string
	Keywords        []string
	Primary         intent.Score
	Candidates      []intent.Score
	Complexity      Complexity
	ComplexityScore int
	Length          int
	WordCount       int
}

// HasIntent reports whether in is the primary intent or one of the candidates.
func (a *Analysis) HasIntent(in intent.Intent) bool {
	if a.Primary.Intent == in && a.Primary.Confidence > 0 {
		return true
	}
	for _, c := range a.Candidates {
		if c.Intent == in {
			return true
		}
	}
	return false
}

// Intents returns the distinct matched intents, primary first.
func (a *Analysis) Intents() []intent.Intent {
	var out []intent.Intent
	seen := make(map[intent.Intent]bool)
	if a.Primary.Confidence > 0 {
		out = append(out, a.Primary.Intent)
		seen[a.Primary.Intent] = true
	}
	for _, c := range a.Candidates {
		if !seen[c.Intent] {
			out = append(out, c.Intent)
			seen[c.Intent] = true
		}
	}
	return out
}
