package nutrirag

import (
	"context"
	"fmt"
	"time"

	domconv "github.com/kailas-cloud/nutrirag/internal/domain/conversation"
)

// SessionService runs multi-turn consultations. Sessions idle past the
// timeout expire, and a failed turn ends its session.
type SessionService struct {
	svc sessionUseCase
	obs *observer
}

// Start opens a session and returns its id. profile carries user facts
// (age, conditions) that every prompt of the session includes.
func (s *SessionService) Start(owner string, profile map[string]string) string {
	return s.svc.CreateSession(owner, profile)
}

// Send answers input in the context of the session's recent turns.
// Unknown, closed and expired sessions return ErrSessionNotFound,
// ErrSessionClosed and ErrSessionExpired. A failed turn returns the
// apology answer together with ErrAnswerFailed.
func (s *SessionService) Send(ctx context.Context, sessionID, input string) (ans Answer, err error) {
	start := time.Now()
	defer func() { s.obs.observe(opSessionSend, start, err, "session_id", sessionID) }()

	reply := s.svc.Process(ctx, sessionID, input)
	if reply.Rejection != "" {
		return Answer{SessionID: sessionID}, fmt.Errorf("nutrirag: %s: %w", reply.Rejection.Message(), reply.Rejection.Err())
	}

	if reply.Response != nil {
		ans = answerFromResponse(reply.Response)
	}
	ans.Text = reply.Answer
	ans.SessionID = reply.SessionID
	if reply.Turn != nil {
		ans.TurnID = reply.Turn.ID
		if reply.Turn.Failed() {
			return ans, fmt.Errorf("%w: %s", ErrAnswerFailed, reply.Turn.Error)
		}
	}
	return ans, nil
}

// Info returns a snapshot of a live or archived session.
func (s *SessionService) Info(ctx context.Context, sessionID string) (info SessionInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe(opSessionRead, start, err, "session_id", sessionID) }()

	i, err := s.svc.SessionInfo(ctx, sessionID)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("nutrirag: session info: %w", err)
	}
	return SessionInfo{
		ID:             i.ID,
		Owner:          i.Owner,
		State:          string(i.State),
		Created:        i.Created,
		LastActivity:   i.LastActivity,
		Turns:          i.TotalTurns,
		AverageQuality: i.Stats.AverageQuality,
		Topics:         i.Stats.Topics,
	}, nil
}

// History returns up to maxTurns most recent turns, oldest first.
// maxTurns <= 0 returns all of them.
func (s *SessionService) History(ctx context.Context, sessionID string, maxTurns int) (turns []Turn, err error) {
	start := time.Now()
	defer func() { s.obs.observe(opSessionRead, start, err, "session_id", sessionID) }()

	ts, err := s.svc.History(ctx, sessionID, maxTurns)
	if err != nil {
		return nil, fmt.Errorf("nutrirag: session history: %w", err)
	}
	return turnsFromDomain(ts), nil
}

// Analyze summarizes quality, intents and follow-up recommendations of a
// session with at least one turn.
func (s *SessionService) Analyze(ctx context.Context, sessionID string) (a Analysis, err error) {
	start := time.Now()
	defer func() { s.obs.observe(opSessionRead, start, err, "session_id", sessionID) }()

	res, err := s.svc.Analyze(ctx, sessionID)
	if err != nil {
		return Analysis{}, fmt.Errorf("nutrirag: session analysis: %w", err)
	}
	return Analysis{
		SessionID:       res.SessionID,
		TotalTurns:      res.Summary.TotalTurns,
		AverageQuality:  res.Summary.AverageQuality,
		QualityTrend:    res.Patterns.QualityTrend,
		DominantIntent:  string(res.Patterns.DominantIntent),
		IntentDiversity: res.Patterns.IntentDiversity,
		Recommendations: res.Recommendations,
	}, nil
}

// End closes a session. Ending a closed session is a no-op.
func (s *SessionService) End(ctx context.Context, sessionID string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe(opSessionEnd, start, err, "session_id", sessionID) }()

	if err := s.svc.EndSession(ctx, sessionID); err != nil {
		return fmt.Errorf("nutrirag: end session: %w", err)
	}
	return nil
}

func turnsFromDomain(ts []domconv.Turn) []Turn {
	out := make([]Turn, len(ts))
	for i := range ts {
		t := &ts[i]
		out[i] = Turn{
			ID:        t.ID,
			Input:     t.Input,
			Output:    t.Output,
			Intent:    string(t.Intent),
			Quality:   t.Quality,
			Duration:  t.Duration,
			Timestamp: t.Timestamp,
			Failed:    t.Failed(),
		}
	}
	return out
}
