package conversation

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/nutrirag/internal/domain"
	"github.com/kailas-cloud/nutrirag/internal/domain/conversation"
	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
)

// Quality trends.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Recommendation thresholds.
const (
	lowQuality      = 70.0
	narrowDiversity = 2
	slowProcessing  = 2 * time.Second
	shortSession    = 3
	longSession     = 15
)

// Recommendation texts.
const (
	RecImproveQuality = "建议提高回答质量，增加更多具体的营养建议"
	RecWidenTopics    = "用户查询范围较窄，可主动引导扩展相关营养话题"
	RecSpeedUp        = "处理时间较长，建议优化检索和生成效率"
	RecShortSession   = "会话较短，可主动询问用户是否需要更多相关建议"
	RecLongSession    = "会话较长，建议总结要点并询问是否需要具体的行动计划"
)

// Summary is the headline of an analysis.
type Summary struct {
	TotalTurns     int
	Duration       time.Duration
	AverageQuality float64
	Topics         []string
	Intents        []intent.Intent
}

// TurnBreakdown describes one turn.
type TurnBreakdown struct {
	TurnID       int
	Intent       intent.Intent
	Quality      float64
	Duration     time.Duration
	InputLength  int
	OutputLength int
	Sources      int
}

// Patterns are the behaviours observed across turns. QualityTrend is empty
// when fewer than two turns carry a score.
type Patterns struct {
	QualityTrend          string
	DominantIntent        intent.Intent
	IntentDiversity       int
	AverageProcessingTime time.Duration
}

// Analysis is the report returned by Analyze.
type Analysis struct {
	SessionID       string
	Summary         Summary
	Turns           []TurnBreakdown
	Patterns        Patterns
	Recommendations []string
}

// Analyze reports on a live or archived session. A session without turns
// is an invalid input.
func (m *Manager) Analyze(ctx context.Context, id string) (Analysis, error) {
	var (
		info  conversation.Info
		turns []conversation.Turn
	)
	if e := m.lookup(id); e != nil {
		e.mu.Lock()
		info = e.session.Snapshot(0)
		turns = e.session.Turns()
		e.mu.Unlock()
	} else {
		a, err := m.fromArchive(ctx, id)
		if err != nil {
			return Analysis{}, err
		}
		info, turns = a.Info, a.Turns
	}
	if len(turns) == 0 {
		return Analysis{}, fmt.Errorf("session %s has no turns: %w", id, domain.ErrInvalidInput)
	}
	return analyze(info, turns), nil
}

func analyze(info conversation.Info, turns []conversation.Turn) Analysis {
	a := Analysis{
		SessionID: info.ID,
		Summary: Summary{
			TotalTurns:     len(turns),
			Duration:       info.Duration(),
			AverageQuality: info.Stats.AverageQuality,
			Topics:         info.Stats.Topics,
			Intents:        info.Stats.Intents,
		},
		Turns: make([]TurnBreakdown, len(turns)),
	}
	for i, t := range turns {
		a.Turns[i] = TurnBreakdown{
			TurnID:       t.ID,
			Intent:       t.Intent,
			Quality:      t.Quality,
			Duration:     t.Duration,
			InputLength:  utf8.RuneCountInString(t.Input),
			OutputLength: utf8.RuneCountInString(t.Output),
			Sources:      t.Sources,
		}
	}
	a.Patterns = patterns(turns)
	a.Recommendations = recommend(a.Summary, a.Patterns)
	return a
}

func patterns(turns []conversation.Turn) Patterns {
	var p Patterns

	var scored []float64
	for _, t := range turns {
		if t.Quality > 0 {
			scored = append(scored, t.Quality)
		}
	}
	if len(scored) > 1 {
		first, last := scored[0], scored[len(scored)-1]
		switch {
		case last > first:
			p.QualityTrend = TrendImproving
		case last < first:
			p.QualityTrend = TrendDeclining
		default:
			p.QualityTrend = TrendStable
		}
	}

	// Ties go to the intent seen first.
	counts := make(map[intent.Intent]int)
	var order []intent.Intent
	var total time.Duration
	for _, t := range turns {
		if _, ok := counts[t.Intent]; !ok {
			order = append(order, t.Intent)
		}
		counts[t.Intent]++
		total += t.Duration
	}
	best := 0
	for _, in := range order {
		if counts[in] > best {
			best = counts[in]
			p.DominantIntent = in
		}
	}
	p.IntentDiversity = len(counts)
	p.AverageProcessingTime = total / time.Duration(len(turns))
	return p
}

func recommend(s Summary, p Patterns) []string {
	var recs []string
	if s.AverageQuality < lowQuality {
		recs = append(recs, RecImproveQuality)
	}
	if p.IntentDiversity < narrowDiversity {
		recs = append(recs, RecWidenTopics)
	}
	if p.AverageProcessingTime > slowProcessing {
		recs = append(recs, RecSpeedUp)
	}
	switch {
	case s.TotalTurns < shortSession:
		recs = append(recs, RecShortSession)
	case s.TotalTurns > longSession:
		recs = append(recs, RecLongSession)
	}
	return recs
}
