// Package conversation runs multi-turn consultation sessions on top of the
// RAG pipeline.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/domain"
	"github.com/kailas-cloud/nutrirag/internal/domain/conversation"
	domprompt "github.com/kailas-cloud/nutrirag/internal/domain/prompt"
	domrag "github.com/kailas-cloud/nutrirag/internal/domain/rag"
	"github.com/kailas-cloud/nutrirag/internal/metrics"
	"github.com/kailas-cloud/nutrirag/internal/repository/archive"
	"github.com/kailas-cloud/nutrirag/internal/usecase/rag"
)

// Manager defaults.
const (
	DefaultIdleTimeout  = 30 * time.Minute
	DefaultHistoryTurns = 3
	DefaultRecentTurns  = 5
	archiveTimeout      = 2 * time.Second
)

// Rejection says why a turn was refused.
type Rejection string

// Rejection kinds.
const (
	RejectNotFound Rejection = "not_found"
	RejectClosed   Rejection = "closed"
	RejectExpired  Rejection = "expired"
)

// User-facing rejection messages.
const (
	MsgNotFound = "会话不存在，请重新开始对话。"
	MsgClosed   = "会话已结束，请重新开始对话。"
	MsgExpired  = "会话已超时，请重新开始对话。"
)

// Message returns the fixed user-facing text for r.
func (r Rejection) Message() string {
	switch r {
	case RejectNotFound:
		return MsgNotFound
	case RejectClosed:
		return MsgClosed
	case RejectExpired:
		return MsgExpired
	default:
		return ""
	}
}

// Err maps r to its domain error.
func (r Rejection) Err() error {
	switch r {
	case RejectNotFound:
		return domain.ErrSessionNotFound
	case RejectClosed:
		return domain.ErrSessionClosed
	case RejectExpired:
		return domain.ErrSessionExpired
	default:
		return nil
	}
}

// Config holds session settings.
type Config struct {
	IdleTimeout time.Duration
	// HistoryTurns bounds the prior exchanges passed to the pipeline.
	HistoryTurns int
	// RecentTurns bounds the turn summaries in SessionInfo.
	RecentTurns int
	// TerminateOnError moves a session to the error state after a failed
	// turn. When false the session keeps accepting turns.
	TerminateOnError bool
	// Retention is how long closed sessions stay in memory. Zero keeps them.
	Retention time.Duration
	Topics    []Topic
}

// DefaultConfig returns the defaults: 30 minute timeout, a 3 turn history
// window and termination on error.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:      DefaultIdleTimeout,
		HistoryTurns:     DefaultHistoryTurns,
		RecentTurns:      DefaultRecentTurns,
		TerminateOnError: true,
		Topics:           DefaultTopics(),
	}
}

// Reply is the outcome of one user input. Turn is nil when the input was
// rejected.
type Reply struct {
	SessionID string
	Answer    string
	Rejection Rejection
	Turn      *conversation.Turn
	Response  *domrag.Response
	// SessionTurns is the turn count after this input.
	SessionTurns int
}

type entry struct {
	mu      sync.Mutex
	session *conversation.Session
}

// Manager owns the live sessions. Turns on one session are serialized by a
// per-session lock; different sessions proceed in parallel.
type Manager struct {
	pipeline Pipeline
	archive  Archive
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string

	mu       sync.RWMutex
	sessions map[string]*entry
	created  int64
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator replaces uuid session ids.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) { m.newID = gen }
}

// WithArchive stores closed sessions.
func WithArchive(a Archive) Option {
	return func(m *Manager) { m.archive = a }
}

// NewManager creates a manager. Zero config fields take the defaults except
// TerminateOnError and Retention.
func NewManager(pipeline Pipeline, cfg Config, logger *zap.Logger, opts ...Option) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = DefaultHistoryTurns
	}
	if cfg.RecentTurns <= 0 {
		cfg.RecentTurns = DefaultRecentTurns
	}
	if cfg.Topics == nil {
		cfg.Topics = DefaultTopics()
	}
	m := &Manager{
		pipeline: pipeline,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
		sessions: make(map[string]*entry),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// CreateSession starts an active session and returns its id.
func (m *Manager) CreateSession(owner string, profile map[string]string) string {
	id := m.newID()
	s := conversation.NewSession(id, owner, profile, m.now())

	m.mu.Lock()
	m.sessions[id] = &entry{session: s}
	m.created++
	m.mu.Unlock()

	metrics.SessionsActive.Inc()
	m.logger.Info("Session created", zap.String("session_id", id), zap.String("owner", owner))
	return id
}

func (m *Manager) lookup(id string) *entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Process runs one user input through the pipeline. Unknown, closed and
// idle sessions are answered with a fixed message and left untouched,
// except that an idle session is moved to ended.
func (m *Manager) Process(ctx context.Context, sessionID, input string) Reply {
	e := m.lookup(sessionID)
	if e == nil {
		return m.reject(sessionID, RejectNotFound, 0)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.session

	if !s.State().AcceptsTurns() {
		return m.reject(sessionID, RejectClosed, s.TurnCount())
	}
	if s.IdleFor(m.now(), m.cfg.IdleTimeout) {
		s.Expire()
		m.closed(ctx, s, "expired")
		return m.reject(sessionID, RejectExpired, s.TurnCount())
	}

	s.Begin()
	resp, err := m.run(ctx, domrag.Request{
		Query:     input,
		SessionID: sessionID,
		Profile:   s.Profile(),
		History:   historyFrom(s.Recent(m.cfg.HistoryTurns)),
		Carried:   s.Carried(),
	})
	if err == nil && resp.State() == domrag.Failed {
		err = errors.New(resp.Metadata().Error)
	}
	if err != nil {
		return m.recordError(ctx, s, input, resp, err)
	}

	turn := s.Record(conversation.Turn{
		Input:      input,
		Output:     resp.Answer(),
		Intent:     resp.Intent(),
		Timestamp:  m.now(),
		Duration:   resp.Duration(),
		Quality:    resp.Quality(),
		Confidence: resp.Confidence(),
		Sources:    resp.SourceCount(),
	}, detectTopics(m.cfg.Topics, input, resp.Answer()), m.now())
	metrics.SessionTurnsTotal.WithLabelValues("ok").Inc()

	return Reply{
		SessionID:    sessionID,
		Answer:       resp.Answer(),
		Turn:         &turn,
		Response:     &resp,
		SessionTurns: s.TurnCount(),
	}
}

// run calls the pipeline, converting a panic into an error.
func (m *Manager) run(ctx context.Context, req domrag.Request) (resp domrag.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return m.pipeline.Process(ctx, req), nil
}

func (m *Manager) recordError(
	ctx context.Context, s *conversation.Session, input string, resp domrag.Response, cause error,
) Reply {
	answer := resp.Answer()
	if answer == "" {
		answer = rag.Apology
	}
	turn := s.RecordError(input, answer, cause.Error(), m.now(), m.cfg.TerminateOnError)
	metrics.SessionTurnsTotal.WithLabelValues("error").Inc()

	m.logger.Error("Conversation turn failed",
		zap.String("session_id", s.ID()),
		zap.Int("turn_id", turn.ID),
		zap.Bool("terminated", m.cfg.TerminateOnError),
		zap.Error(cause),
	)
	if m.cfg.TerminateOnError {
		m.closed(ctx, s, "error")
	}

	reply := Reply{SessionID: s.ID(), Answer: answer, Turn: &turn, SessionTurns: s.TurnCount()}
	if resp.State() != "" {
		reply.Response = &resp
	}
	return reply
}

func (m *Manager) reject(id string, r Rejection, turns int) Reply {
	metrics.SessionTurnsTotal.WithLabelValues(string(r)).Inc()
	return Reply{SessionID: id, Answer: r.Message(), Rejection: r, SessionTurns: turns}
}

// closed updates the gauge and archives a session that just left the
// accepting states. Callers hold the session lock.
func (m *Manager) closed(ctx context.Context, s *conversation.Session, reason string) {
	metrics.SessionsActive.Dec()
	m.logger.Info("Session closed",
		zap.String("session_id", s.ID()),
		zap.String("reason", reason),
		zap.Int("turns", s.TurnCount()),
	)
	if m.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	if err := m.archive.Save(ctx, s); err != nil {
		m.logger.Warn("Failed to archive session", zap.String("session_id", s.ID()), zap.Error(err))
	}
}

func historyFrom(turns []conversation.Turn) []domprompt.HistoryEntry {
	out := make([]domprompt.HistoryEntry, 0, len(turns))
	for _, t := range turns {
		if t.Failed() {
			continue
		}
		out = append(out, domprompt.HistoryEntry{User: t.Input, Assistant: t.Output, Intent: t.Intent})
	}
	return out
}

// SessionInfo returns a snapshot of a live session, or of an archived one
// when it is no longer in memory.
func (m *Manager) SessionInfo(ctx context.Context, id string) (conversation.Info, error) {
	if e := m.lookup(id); e != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.session.Snapshot(m.cfg.RecentTurns), nil
	}
	a, err := m.fromArchive(ctx, id)
	if err != nil {
		return conversation.Info{}, err
	}
	return a.Info, nil
}

// History returns up to maxTurns most recent turns. maxTurns <= 0 returns all.
func (m *Manager) History(ctx context.Context, id string, maxTurns int) ([]conversation.Turn, error) {
	if e := m.lookup(id); e != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.session.Recent(maxTurns), nil
	}
	a, err := m.fromArchive(ctx, id)
	if err != nil {
		return nil, err
	}
	turns := a.Turns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	return turns, nil
}

func (m *Manager) fromArchive(ctx context.Context, id string) (archive.Archived, error) {
	if m.archive == nil {
		return archive.Archived{}, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	a, err := m.archive.Get(ctx, id)
	if err != nil {
		return archive.Archived{}, fmt.Errorf("session %s: %w", id, err)
	}
	return a, nil
}

// EndSession closes a session explicitly. Ending a closed session is a no-op.
func (m *Manager) EndSession(ctx context.Context, id string) error {
	e := m.lookup(id)
	if e == nil {
		return fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.State().AcceptsTurns() {
		return nil
	}
	e.session.End(m.now())
	m.closed(ctx, e.session, "ended")
	return nil
}

// SweepExpired ends every idle session and drops closed sessions older than
// the retention. It returns the number of sessions expired.
func (m *Manager) SweepExpired(ctx context.Context) int {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	now := m.now()
	expired := 0
	var evict []string
	for _, e := range entries {
		e.mu.Lock()
		s := e.session
		if s.State().AcceptsTurns() && s.IdleFor(now, m.cfg.IdleTimeout) {
			s.Expire()
			m.closed(ctx, s, "expired")
			expired++
		}
		if m.cfg.Retention > 0 && !s.State().AcceptsTurns() && s.IdleFor(now, m.cfg.Retention) {
			evict = append(evict, s.ID())
		}
		e.mu.Unlock()
	}

	if len(evict) > 0 {
		m.mu.Lock()
		for _, id := range evict {
			delete(m.sessions, id)
		}
		m.mu.Unlock()
	}
	if expired > 0 || len(evict) > 0 {
		m.logger.Info("Session sweep", zap.Int("expired", expired), zap.Int("evicted", len(evict)))
	}
	return expired
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SweepExpired(ctx)
		}
	}
}

// GlobalStats are aggregates over the sessions held in memory.
type GlobalStats struct {
	TotalSessions          int64   `json:"total_sessions"`
	ActiveSessions         int     `json:"active_sessions"`
	TotalTurns             int     `json:"total_turns"`
	AverageTurnsPerSession float64 `json:"average_turns_per_session"`
	AverageSessionDuration float64 `json:"average_session_duration"`
	AverageQualityScore    float64 `json:"average_quality_score"`
}

// GlobalStats computes aggregates. TotalSessions counts every session ever
// created; the averages cover retained sessions only. Durations count sessions
// with at least one turn; quality counts turns with a positive score.
func (m *Manager) GlobalStats() GlobalStats {
	m.mu.RLock()
	st := GlobalStats{TotalSessions: m.created}
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	var (
		withTurns    int
		duration     time.Duration
		qualitySum   float64
		qualityTurns int
	)
	for _, e := range entries {
		e.mu.Lock()
		s := e.session
		if s.State().AcceptsTurns() {
			st.ActiveSessions++
		}
		turns := s.Turns()
		st.TotalTurns += len(turns)
		if len(turns) > 0 {
			withTurns++
			duration += s.LastActivity().Sub(s.Created())
		}
		for _, t := range turns {
			if t.Quality > 0 {
				qualitySum += t.Quality
				qualityTurns++
			}
		}
		e.mu.Unlock()
	}

	if len(entries) > 0 {
		st.AverageTurnsPerSession = float64(st.TotalTurns) / float64(len(entries))
	}
	if withTurns > 0 {
		st.AverageSessionDuration = duration.Seconds() / float64(withTurns)
	}
	if qualityTurns > 0 {
		st.AverageQualityScore = qualitySum / float64(qualityTurns)
	}
	return st
}
