// Package window turns range selectors into feed queries and readings into chart series.
package window

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
)

// Selector is the range picker value.
type Selector string

const (
	SelectorLast    Selector = "last"
	SelectorDaily   Selector = "daily"
	SelectorWeekly  Selector = "weekly"
	SelectorMonthly Selector = "monthly"
	SelectorCustom  Selector = "custom"
)

// ParseSelector normalises a selector; "count" and "lastN" are accepted as "last".
func ParseSelector(s string) (Selector, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "last", "lastn", "count":
		return SelectorLast, nil
	case "daily", "day":
		return SelectorDaily, nil
	case "weekly", "week":
		return SelectorWeekly, nil
	case "monthly", "month":
		return SelectorMonthly, nil
	case "custom":
		return SelectorCustom, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownSelector, s)
}

// Bounds carries the optional inputs of a selector.
type Bounds struct {
	Start *time.Time
	End   *time.Time
	N     int
}

// ParseBounds reads form values. Empty dates stay absent; malformed ones are rejected.
func ParseBounds(start, end, n string, loc *time.Location) (Bounds, error) {
	if loc == nil {
		loc = time.UTC
	}
	var b Bounds
	if s := strings.TrimSpace(start); s != "" {
		t, err := time.ParseInLocation(domain.DateLayout, s, loc)
		if err != nil {
			return Bounds{}, fmt.Errorf("%w: start %q", domain.ErrInvalidRange, s)
		}
		b.Start = &t
	}
	if s := strings.TrimSpace(end); s != "" {
		t, err := time.ParseInLocation(domain.DateLayout, s, loc)
		if err != nil {
			return Bounds{}, fmt.Errorf("%w: end %q", domain.ErrInvalidRange, s)
		}
		b.End = &t
	}
	if s := strings.TrimSpace(n); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return Bounds{}, fmt.Errorf("%w: %q", domain.ErrInvalidCount, s)
		}
		b.N = v
	}
	return b, nil
}

// Resolver maps selectors to concrete queries relative to a clock.
type Resolver struct {
	now      func() time.Time
	defaultN int
}

// NewResolver builds a resolver. defaultN is used by "last" when no count is given.
func NewResolver(now func() time.Time, defaultN int) *Resolver {
	if now == nil {
		now = time.Now
	}
	if defaultN <= 0 {
		defaultN = 100
	}
	return &Resolver{now: now, defaultN: defaultN}
}

// Resolve validates the selector and bounds before any fetch is attempted.
func (r *Resolver) Resolve(sel Selector, b Bounds) (domain.HistoricalQuery, error) {
	today := domain.Date(r.now())
	switch sel {
	case SelectorLast:
		n := b.N
		if n == 0 {
			n = r.defaultN
		}
		q := domain.CountQuery(n)
		return q, q.Validate()
	case SelectorDaily:
		return relative(domain.UnitDay, today.AddDate(0, 0, -1), today), nil
	case SelectorWeekly:
		return relative(domain.UnitWeek, today.AddDate(0, 0, -7), today), nil
	case SelectorMonthly:
		return relative(domain.UnitMonth, today.AddDate(0, -1, 0), today), nil
	case SelectorCustom:
		if b.Start == nil || b.End == nil {
			return domain.HistoricalQuery{}, domain.ErrMissingRangeBounds
		}
		q := domain.HistoricalQuery{
			Kind:  domain.QueryCustomRange,
			Start: domain.Date(*b.Start),
			End:   domain.Date(*b.End),
		}
		return q, q.Validate()
	}
	return domain.HistoricalQuery{}, fmt.Errorf("%w: %q", domain.ErrUnknownSelector, sel)
}

func relative(unit domain.WindowUnit, start, end time.Time) domain.HistoricalQuery {
	return domain.HistoricalQuery{Kind: domain.QueryRelativeWindow, Unit: unit, Start: start, End: end}
}

// PeriodLabel echoes the selector for reports.
func PeriodLabel(sel Selector, q domain.HistoricalQuery) string {
	switch q.Kind {
	case domain.QueryCount:
		return fmt.Sprintf("last %d entries", q.N)
	case domain.QueryCustomRange:
		return q.Start.Format(domain.DateLayout) + " to " + q.End.Format(domain.DateLayout)
	}
	return string(sel)
}

// LabelLayout picks the time format for series labels: clock time for short count
// windows, date and time for calendar windows.
func LabelLayout(q domain.HistoricalQuery) string {
	if q.IsCount() {
		return "15:04:05"
	}
	return "2006-01-02 15:04"
}
