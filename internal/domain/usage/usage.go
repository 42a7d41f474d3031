// Package usage describes token consumption of a billed provider over a
// budget period.
package usage

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/nutrirag/internal/domain"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates s. Empty means PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodMonth:
		return Period(s), nil
	default:
		return "", fmt.Errorf("unknown usage period %q: %w", s, domain.ErrInvalidInput)
	}
}

// Bounds returns the UTC period containing at.
func (p Period) Bounds(at time.Time) (start, end time.Time) {
	at = at.UTC()
	if p == PeriodMonth {
		start = time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start = time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Report is the token usage of one budget scope (embedding, generation).
type Report struct {
	scope     string
	period    Period
	start     time.Time
	end       time.Time
	used      int64
	limit     int64
	remaining int64
}

// NewReport creates a usage report. limit == 0 means unlimited and
// remaining is then reported as -1.
func NewReport(scope string, period Period, start, end time.Time, used, limit int64) Report {
	remaining := int64(-1)
	if limit > 0 {
		remaining = max(limit-used, 0)
	}
	return Report{
		scope:     scope,
		period:    period,
		start:     start,
		end:       end,
		used:      used,
		limit:     limit,
		remaining: remaining,
	}
}

// Scope returns the budget scope name.
func (r *Report) Scope() string { return r.scope }

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the inclusive period start.
func (r *Report) PeriodStart() time.Time { return r.start }

// PeriodEnd returns the exclusive period end, which is also when the
// counter resets.
func (r *Report) PeriodEnd() time.Time { return r.end }

// Used returns tokens consumed in the period.
func (r *Report) Used() int64 { return r.used }

// Limit returns the token cap (0 = unlimited).
func (r *Report) Limit() int64 { return r.limit }

// Remaining returns tokens left (-1 = unlimited).
func (r *Report) Remaining() int64 { return r.remaining }

// IsExhausted reports whether the limit is spent.
func (r *Report) IsExhausted() bool { return r.limit > 0 && r.remaining == 0 }
