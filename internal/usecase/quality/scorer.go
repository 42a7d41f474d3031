// Package quality scores generated answers on five weighted dimensions.
package quality

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	domquality "github.com/kailas-cloud/nutrirag/internal/domain/quality"
)

// NeutralScore replaces a dimension whose computation failed.
const NeutralScore = 75.0

// IssueThreshold is the score below which a dimension reports feedback.
const IssueThreshold = 70.0

// DefaultWeights sum to 1.
func DefaultWeights() map[domquality.Dimension]float64 {
	return map[domquality.Dimension]float64{
		domquality.Relevance:    0.30,
		domquality.Completeness: 0.25,
		domquality.Accuracy:     0.25,
		domquality.Readability:  0.10,
		domquality.Safety:       0.10,
	}
}

// DefaultRiskyPhrases are penalized by the safety dimension.
var DefaultRiskyPhrases = []string{"大量", "随意", "不需要"}

var feedback = map[domquality.Dimension][2]string{
	domquality.Relevance:    {"回答与问题相关性不够", "建议增加更多与用户问题直接相关的内容"},
	domquality.Completeness: {"回答不够完整", "建议补充更多细节和具体建议"},
	domquality.Accuracy:     {"回答准确性有待提高", "建议基于更多可靠来源生成回答"},
	domquality.Readability:  {"回答可读性需要改善", "建议优化段落结构和表达方式"},
	domquality.Safety:       {"回答安全性需要注意", "建议添加适当的免责声明和医嘱提醒"},
}

// Input is what an answer is judged on.
type Input struct {
	Query      string
	Answer     string
	Sources    int
	Confidence float64
}

// Rule scores one dimension.
type Rule func(in Input) float64

// Scorer assesses answers. Safe for concurrent use.
type Scorer struct {
	weights   map[domquality.Dimension]float64
	rules     map[domquality.Dimension]Rule
	tokenizer Tokenizer
	risky     []string
	logger    *zap.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithTokenizer sets the tokenizer used for query/answer overlap.
// Without one, text is split on whitespace.
func WithTokenizer(t Tokenizer) Option {
	return func(s *Scorer) { s.tokenizer = t }
}

// WithRiskyPhrases replaces the phrases the safety dimension penalizes.
func WithRiskyPhrases(phrases ...string) Option {
	return func(s *Scorer) { s.risky = phrases }
}

// WithRule overrides the scoring of one dimension.
func WithRule(d domquality.Dimension, r Rule) Option {
	return func(s *Scorer) { s.rules[d] = r }
}

// NewScorer creates a scorer with the default weights.
func NewScorer(logger *zap.Logger, opts ...Option) *Scorer {
	s := &Scorer{
		weights: DefaultWeights(),
		risky:   DefaultRiskyPhrases,
		logger:  logger,
	}
	s.rules = map[domquality.Dimension]Rule{
		domquality.Relevance:    s.relevance,
		domquality.Completeness: completeness,
		domquality.Accuracy:     accuracy,
		domquality.Readability:  readability,
		domquality.Safety:       s.safety,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Assess scores every dimension independently, clamps each to [0,100] and
// combines them by weight. A dimension that panics scores NeutralScore.
func (s *Scorer) Assess(in Input) domquality.Assessment {
	a := domquality.Assessment{Dimensions: make(map[domquality.Dimension]float64, len(domquality.Dimensions))}

	for _, d := range domquality.Dimensions {
		score := clamp(s.score(d, in))
		a.Dimensions[d] = score
		a.Overall += score * s.weights[d]

		if score < IssueThreshold {
			fb := feedback[d]
			a.Issues = append(a.Issues, fb[0])
			a.Suggestions = append(a.Suggestions, fb[1])
		}
	}
	return a
}

func (s *Scorer) score(d domquality.Dimension, in Input) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Quality dimension failed, using neutral score",
				zap.String("dimension", string(d)),
				zap.String("panic", fmt.Sprint(r)),
			)
			score = NeutralScore
		}
	}()
	return s.rules[d](in)
}

func (s *Scorer) relevance(in Input) float64 {
	query := s.tokenSet(in.Query)
	overlap := 0
	for tok := range s.tokenSet(in.Answer) {
		if _, ok := query[tok]; ok {
			overlap++
		}
	}
	return 80 + min(float64(overlap)*5, 20)
}

func (s *Scorer) tokenSet(text string) map[string]struct{} {
	var toks []string
	if s.tokenizer != nil {
		toks = s.tokenizer.Tokenize(text)
	} else {
		toks = strings.Fields(strings.ToLower(text))
	}
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}

func completeness(in Input) float64 {
	score := 70.0
	n := utf8.RuneCountInString(in.Answer)
	if n > 300 {
		score += 10
	}
	if n > 600 {
		score += 10
	}
	for _, marker := range []string{"**", "建议", "注意"} {
		if strings.Contains(in.Answer, marker) {
			score += 5
		}
	}
	return score
}

func accuracy(in Input) float64 {
	score := 85.0
	if in.Sources > 0 {
		score += 10
	}
	return score + in.Confidence*5
}

func readability(in Input) float64 {
	score := 80.0
	sentences := strings.Split(in.Answer, "。")
	total := 0
	for _, sentence := range sentences {
		total += utf8.RuneCountInString(sentence)
	}
	if avg := float64(total) / float64(len(sentences)); avg >= 10 && avg <= 30 {
		score += 10
	}
	if strings.Contains(in.Answer, "\n") {
		score += 5
	}
	return score
}

func (s *Scorer) safety(in Input) float64 {
	score := 90.0
	if strings.Contains(in.Answer, "医生") {
		score += 10
	}
	for _, phrase := range s.risky {
		score -= 10 * float64(strings.Count(in.Answer, phrase))
	}
	return score
}

func clamp(v float64) float64 {
	return max(0, min(v, 100))
}
