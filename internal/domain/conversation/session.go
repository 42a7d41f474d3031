// Package conversation holds the multi-turn session aggregate.
package conversation

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
)

// State is the lifecycle state of a session.
type State string

// Session states. Ended and Error are terminal.
const (
	Active  State = "active"
	Waiting State = "waiting"
	Ended   State = "ended"
	Error   State = "error"
)

// AcceptsTurns reports whether a session in s may receive input.
func (s State) AcceptsTurns() bool { return s == Active || s == Waiting }

// Keys of the metadata carried from one turn into the next.
const (
	CarriedLastIntent  = "last_intent"
	CarriedLastTopics  = "last_topics"
	CarriedLastQuality = "last_quality_score"
)

// Turn is one immutable exchange. IDs start at 1 and have no gaps.
type Turn struct {
	ID         int
	Input      string
	Output     string
	Intent     intent.Intent
	Timestamp  time.Time
	Duration   time.Duration
	Quality    float64
	Confidence float64
	Sources    int
	Error      string
}

// Failed reports whether the turn records an internal error.
func (t Turn) Failed() bool { return t.Error != "" }

// Stats are the running aggregates of one session.
type Stats struct {
	TotalTurns      int
	TotalProcessing time.Duration
	AverageQuality  float64
	Topics          []string
	Intents         []intent.Intent
}

// Session is a stateful multi-turn interaction. It is not safe for
// concurrent use; callers serialize access per session.
type Session struct {
	id           string
	owner        string
	created      time.Time
	lastActivity time.Time
	state        State
	turns        []Turn
	profile      map[string]string
	carried      map[string]string
	stats        Stats
}

// NewSession creates an active session.
func NewSession(id, owner string, profile map[string]string, now time.Time) *Session {
	return &Session{
		id:           id,
		owner:        owner,
		created:      now,
		lastActivity: now,
		state:        Active,
		profile:      maps.Clone(profile),
		carried:      make(map[string]string),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Owner returns the user the session belongs to (may be empty).
func (s *Session) Owner() string { return s.owner }

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// Created returns the creation time.
func (s *Session) Created() time.Time { return s.created }

// LastActivity returns the time of the last accepted turn or state change.
func (s *Session) LastActivity() time.Time { return s.lastActivity }

// Profile returns a copy of the user profile.
func (s *Session) Profile() map[string]string { return maps.Clone(s.profile) }

// Carried returns a copy of the metadata carried into the next turn.
func (s *Session) Carried() map[string]string { return maps.Clone(s.carried) }

// TurnCount returns the number of recorded turns.
func (s *Session) TurnCount() int { return len(s.turns) }

// Turns returns a copy of all turns in order.
func (s *Session) Turns() []Turn { return slices.Clone(s.turns) }

// Recent returns a copy of the last n turns. n <= 0 returns all.
func (s *Session) Recent(n int) []Turn {
	if n <= 0 || n >= len(s.turns) {
		return slices.Clone(s.turns)
	}
	return slices.Clone(s.turns[len(s.turns)-n:])
}

// Stats returns a copy of the aggregates.
func (s *Session) Stats() Stats {
	st := s.stats
	st.Topics = slices.Clone(st.Topics)
	st.Intents = slices.Clone(st.Intents)
	return st
}

// IdleFor reports whether the session has been idle longer than timeout at now.
func (s *Session) IdleFor(now time.Time, timeout time.Duration) bool {
	return timeout > 0 && now.Sub(s.lastActivity) > timeout
}

// Begin marks the session as processing input.
func (s *Session) Begin() {
	if s.state.AcceptsTurns() {
		s.state = Active
	}
}

// Record appends a successful turn, assigning its ID, and refreshes the
// aggregates and carried metadata. topics are merged into the discussed set.
func (s *Session) Record(t Turn, topics []string, now time.Time) Turn {
	t.ID = len(s.turns) + 1
	s.turns = append(s.turns, t)
	s.lastActivity = now
	s.state = Waiting

	for _, topic := range topics {
		if !slices.Contains(s.stats.Topics, topic) {
			s.stats.Topics = append(s.stats.Topics, topic)
		}
	}
	if t.Intent != "" && !slices.Contains(s.stats.Intents, t.Intent) {
		s.stats.Intents = append(s.stats.Intents, t.Intent)
	}

	s.stats.TotalTurns++
	s.stats.TotalProcessing += t.Duration
	n := float64(s.stats.TotalTurns)
	s.stats.AverageQuality += (t.Quality - s.stats.AverageQuality) / n

	s.carried[CarriedLastIntent] = string(t.Intent)
	s.carried[CarriedLastTopics] = strings.Join(s.stats.Topics, ",")
	s.carried[CarriedLastQuality] = strconv.FormatFloat(t.Quality, 'f', 1, 64)
	return t
}

// RecordError appends a zero-score error turn. With terminate the session
// moves to Error and accepts nothing further; otherwise it keeps waiting.
func (s *Session) RecordError(input, answer, errMsg string, now time.Time, terminate bool) Turn {
	t := Turn{
		ID:        len(s.turns) + 1,
		Input:     input,
		Output:    answer,
		Timestamp: now,
		Error:     errMsg,
	}
	s.turns = append(s.turns, t)
	s.lastActivity = now
	if terminate {
		s.state = Error
	} else {
		s.state = Waiting
	}
	return t
}

// End closes the session explicitly.
func (s *Session) End(now time.Time) {
	s.state = Ended
	s.lastActivity = now
}

// Expire closes the session because of inactivity. The last activity time is kept.
func (s *Session) Expire() {
	s.state = Ended
}

// Info is a read-only snapshot of a session.
type Info struct {
	ID           string
	Owner        string
	State        State
	Created      time.Time
	LastActivity time.Time
	TotalTurns   int
	Stats        Stats
	Recent       []TurnSummary
}

// Duration is the span between creation and last activity.
func (i Info) Duration() time.Duration { return i.LastActivity.Sub(i.Created) }

// TurnSummary is the short form of a turn used in snapshots.
type TurnSummary struct {
	ID      int
	Input   string
	Intent  intent.Intent
	Quality float64
}

const summaryInputRunes = 100

// Snapshot returns an Info with up to recent turn summaries.
func (s *Session) Snapshot(recent int) Info {
	turns := s.Recent(recent)
	sums := make([]TurnSummary, len(turns))
	for i, t := range turns {
		in := []rune(t.Input)
		input := t.Input
		if len(in) > summaryInputRunes {
			input = string(in[:summaryInputRunes]) + "..."
		}
		sums[i] = TurnSummary{ID: t.ID, Input: input, Intent: t.Intent, Quality: t.Quality}
	}
	return Info{
		ID:           s.id,
		Owner:        s.owner,
		State:        s.state,
		Created:      s.created,
		LastActivity: s.lastActivity,
		TotalTurns:   len(s.turns),
		Stats:        s.Stats(),
		Recent:       sums,
	}
}
