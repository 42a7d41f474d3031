// Package generation turns prompts into answers through a remote backend
// that falls back to canned answers on any failure.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/domain"
	"github.com/kailas-cloud/nutrirag/internal/metrics"
)

// Service defaults.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultMaxResponseLength = 1000
)

// Fallback reasons.
const (
	ReasonBudget  = "budget_exceeded"
	ReasonTimeout = "timeout"
	ReasonError   = "backend_error"
	ReasonPanic   = "backend_panic"
)

// Config holds generation settings.
type Config struct {
	Timeout           time.Duration
	MaxResponseLength int
	Style             Style
}

// Service selects a backend per call. Safe for concurrent use.
type Service struct {
	primary  Backend
	fallback Backend
	budget   Budget
	cfg      Config
	logger   *zap.Logger
}

// NewService creates a generator. primary may be nil, in which case every
// call goes to fallback. budget may be nil.
func NewService(primary, fallback Backend, budget Budget, cfg Config, logger *zap.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResponseLength <= 0 {
		cfg.MaxResponseLength = DefaultMaxResponseLength
	}
	if cfg.Style == "" {
		cfg.Style = Professional
	}
	return &Service{
		primary:  primary,
		fallback: fallback,
		budget:   budget,
		cfg:      cfg,
		logger:   logger,
	}
}

// Backend reports the configured primary backend name.
func (s *Service) Backend() string {
	if s.primary != nil {
		return s.primary.Name()
	}
	return s.fallback.Name()
}

// Generate answers prompt. Primary failures of any kind, including budget
// rejection, timeout and panics, fall back to the secondary backend for
// this call only. An error is returned only if the fallback fails too.
func (s *Service) Generate(ctx context.Context, prompt, query string) (Result, error) {
	req := Request{Prompt: prompt, Query: query, Style: s.cfg.Style}

	var reason string
	if s.primary != nil {
		ans, err := s.tryPrimary(ctx, req)
		if err == nil {
			return s.finish(ans, s.primary.Name(), ""), nil
		}
		reason = fallbackReason(err)
		metrics.GenerationFallbackTotal.WithLabelValues(reason).Inc()
		s.logger.Warn("Answer backend failed, falling back",
			zap.String("backend", s.primary.Name()),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}

	ans, err := s.fallback.Generate(ctx, req)
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(s.fallback.Name(), "error").Inc()
		return Result{}, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}
	metrics.GenerationRequestsTotal.WithLabelValues(s.fallback.Name(), "success").Inc()
	return s.finish(ans, s.fallback.Name(), reason), nil
}

func (s *Service) tryPrimary(ctx context.Context, req Request) (ans Answer, err error) {
	if s.budget != nil {
		if err := s.budget.Check(ctx); err != nil {
			return Answer{}, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.GenerationRequestsTotal.WithLabelValues(s.primary.Name(), status).Inc()
	}()

	ans, err = s.primary.Generate(ctx, req)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", err, ctx.Err())
		}
		return Answer{}, err
	}
	if s.budget != nil && ans.Tokens > 0 {
		s.budget.Record(int64(ans.Tokens))
	}
	return ans, nil
}

func (s *Service) finish(ans Answer, backend, reason string) Result {
	text, truncated := Truncate(ans.Text, s.cfg.MaxResponseLength)
	return Result{
		Text:           text,
		Confidence:     ans.Confidence,
		Backend:        backend,
		FallbackReason: reason,
		Truncated:      truncated,
	}
}

type panicError struct{ value any }

func (e *panicError) Error() string { return fmt.Sprintf("backend panic: %v", e.value) }

func fallbackReason(err error) string {
	var pe *panicError
	switch {
	case errors.Is(err, domain.ErrBudgetExceeded):
		return ReasonBudget
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.As(err, &pe):
		return ReasonPanic
	default:
		return ReasonError
	}
}
