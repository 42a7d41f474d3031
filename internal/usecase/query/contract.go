package query

import "github.com/kailas-cloud/nutrirag/internal/domain/intent"

// Normalizer cleans and segments text.
type Normalizer interface {
	Clean(text string) string
	Tokenize(text string) []string
	ExtractKeywords(text string, k int) []string
}

// Classifier scores a query against the intent rules.
type Classifier interface {
	Classify(query string) intent.Score
	Candidates(query string, threshold float64) []intent.Score
}
