package prompt

import (
	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/result"
)

// Step is one reasoning instruction of the chain-of-thought scaffold.
type Step struct {
	Name        string
	Description string
	Instruction string
	Example     string
}

// Template is the intent-specific prompt skeleton.
type Template struct {
	Name         string
	Intent       intent.Intent
	Persona      string
	Steps        []Step
	Requirements []string
	Closing      string
}

// Exemplar is a worked question/answer pair used for few-shot steering.
type Exemplar struct {
	Intent   intent.Intent
	Question string
	Analysis string
	Answer   string
}

// HistoryEntry is a prior exchange carried into the prompt.
type HistoryEntry struct {
	User      string
	Assistant string
	Intent    intent.Intent
}

// Context is everything the assembler renders for one call.
type Context struct {
	Query      string
	Intent     intent.Score
	Knowledge  []result.Result
	Profile    map[string]string
	History    []HistoryEntry
	UseFewShot bool
}

// Level is the structural quality tier of a rendered prompt.
type Level string

// Prompt quality levels.
const (
	Excellent        Level = "excellent"
	Good             Level = "good"
	NeedsImprovement Level = "needs_improvement"
)

// LevelFromScore maps a validator score to a Level.
func LevelFromScore(score int) Level {
	switch {
	case score >= 90:
		return Excellent
	case score >= 70:
		return Good
	default:
		return NeedsImprovement
	}
}

// Validation is the structural quality report of a prompt.
type Validation struct {
	Score             int
	Level             Level
	Issues            []string
	Length            int
	MissingComponents []string
}

// Built is an assembled prompt and the template that produced it.
type Built struct {
	Text     string
	Template string
	FewShot  int
}
