// Package query derives tokens, keywords, intents and a complexity tier
// from a raw user query.
package query

import (
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/nutrirag/internal/domain/query"
)

// Analyzer defaults.
const (
	DefaultCandidateThreshold = 0.3
	DefaultKeywordCount       = 5
)

// DefaultComplexityMarkers are terms that signal a question needing
// careful medical reasoning.
var DefaultComplexityMarkers = []string{"并发症", "禁忌", "相互作用", "药物", "治疗"}

// Complexity thresholds on the raw query.
const (
	longQueryRunes = 50
	manyWords      = 10
)

// Analyzer is stateless and safe for concurrent use.
type Analyzer struct {
	norm       Normalizer
	classifier Classifier
	markers    []string
	threshold  float64
	keywords   int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCandidateThreshold sets the minimum confidence for secondary intents.
func WithCandidateThreshold(th float64) Option {
	return func(a *Analyzer) { a.threshold = th }
}

// WithComplexityMarkers replaces the complexity marker vocabulary.
func WithComplexityMarkers(markers ...string) Option {
	return func(a *Analyzer) { a.markers = markers }
}

// WithKeywordCount sets how many keywords are extracted per query.
func WithKeywordCount(k int) Option {
	return func(a *Analyzer) { a.keywords = k }
}

// NewAnalyzer creates an analyzer over a normalizer and an intent classifier.
func NewAnalyzer(norm Normalizer, classifier Classifier, opts ...Option) *Analyzer {
	a := &Analyzer{
		norm:       norm,
		classifier: classifier,
		markers:    DefaultComplexityMarkers,
		threshold:  DefaultCandidateThreshold,
		keywords:   DefaultKeywordCount,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze never fails: an empty or unparseable query yields an empty
// analysis with the general intent.
func (a *Analyzer) Analyze(q string) query.Analysis {
	clean := a.norm.Clean(q)
	res := query.Analysis{
		Original:   q,
		Clean:      clean,
		Tokens:     a.norm.Tokenize(clean),
		Keywords:   a.norm.ExtractKeywords(clean, a.keywords),
		Primary:    a.classifier.Classify(q),
		Candidates: a.classifier.Candidates(q, a.threshold),
		Length:     utf8.RuneCountInString(q),
		WordCount:  len(strings.Fields(q)),
	}
	res.ComplexityScore = a.complexityScore(res)
	res.Complexity = query.ComplexityFromScore(res.ComplexityScore)
	return res
}

// complexityScore adds one point each for a long query, many words, more
// than one candidate intent and any complexity marker.
func (a *Analyzer) complexityScore(res query.Analysis) int {
	score := 0
	if res.Length > longQueryRunes {
		score++
	}
	if res.WordCount > manyWords {
		score++
	}
	if len(res.Candidates) > 1 {
		score++
	}
	for _, m := range a.markers {
		if strings.Contains(res.Original, m) {
			score++
			break
		}
	}
	return score
}
