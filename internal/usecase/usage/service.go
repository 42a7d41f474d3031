// Package usage reports token consumption of the configured billed
// providers.
package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/nutrirag/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	readers []BudgetReader
	now     func() time.Time
}

// New creates a Service over the given budgets. Nil readers are skipped so
// callers can pass optional trackers directly.
func New(readers ...BudgetReader) *Service {
	s := &Service{now: time.Now}
	for _, r := range readers {
		if r != nil {
			s.readers = append(s.readers, r)
		}
	}
	return s
}

// WithClock replaces the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Reports builds one report per budget for the given period, in the order
// the budgets were registered. Without budgets the result is empty.
func (s *Service) Reports(_ context.Context, period domusage.Period) []domusage.Report {
	start, end := period.Bounds(s.now())
	reports := make([]domusage.Report, 0, len(s.readers))
	for _, r := range s.readers {
		u := r.Usage()
		used, limit := u.DailyUsed, u.DailyLimit
		if period == domusage.PeriodMonth {
			used, limit = u.MonthlyUsed, u.MonthlyLimit
		}
		reports = append(reports, domusage.NewReport(u.Scope, period, start, end, used, limit))
	}
	return reports
}
