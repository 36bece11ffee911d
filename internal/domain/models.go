package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Phase selects one of the three metered phases, each backed by its own channel.
type Phase string

const (
	Phase1 Phase = "phase1"
	Phase2 Phase = "phase2"
	Phase3 Phase = "phase3"
)

// Phases lists the selectable phases.
func Phases() []Phase { return []Phase{Phase1, Phase2, Phase3} }

// ParsePhase validates a phase selector.
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case Phase1, Phase2, Phase3:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPhase, s)
}

// Title is the display name, e.g. "Phase 1".
func (p Phase) Title() string {
	n := strings.TrimPrefix(string(p), "phase")
	return "Phase " + n
}

// Value is one field of a feed entry as sent by the source. Null values are not Present.
type Value struct {
	Raw     string `json:"raw"`
	Present bool   `json:"present"`
}

// NullValue is the absent reading.
var NullValue = Value{}

// TextValue wraps a raw string reading.
func TextValue(raw string) Value { return Value{Raw: raw, Present: true} }

// NumberValue wraps a numeric reading, mostly for tests and simulators.
func NumberValue(v float64) Value {
	return TextValue(strconv.FormatFloat(v, 'f', -1, 64))
}

// Populated reports whether the source sent something for this field.
func (v Value) Populated() bool { return v.Present && strings.TrimSpace(v.Raw) != "" }

// Float parses the reading. Absent, unparseable, NaN and infinite readings are not numbers.
func (v Value) Float() (float64, bool) {
	if !v.Present {
		return 0, false
	}
	return ParseNumber(v.Raw)
}

// Ptr returns the parsed value or nil.
func (v Value) Ptr() *float64 {
	f, ok := v.Float()
	if !ok {
		return nil
	}
	return &f
}

// ParseNumber is the single definition of "a valid number" used across the engine.
func ParseNumber(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// TimedReading is one timestamped sample of all eight fields.
type TimedReading struct {
	At     time.Time         `json:"at"`
	Values [FieldCount]Value `json:"values"`
}

// Get returns the value of one field.
func (r TimedReading) Get(f Field) Value {
	if !f.Valid() {
		return NullValue
	}
	return r.Values[f]
}

// Complete reports whether every field is populated.
func (r TimedReading) Complete() bool {
	for _, v := range r.Values {
		if !v.Populated() {
			return false
		}
	}
	return true
}

// SortedAscending returns a copy ordered oldest first. Equal timestamps keep source order.
func SortedAscending(in []TimedReading) []TimedReading {
	out := append([]TimedReading(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// SortedDescending returns a copy ordered newest first.
func SortedDescending(in []TimedReading) []TimedReading {
	out := append([]TimedReading(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out
}

// Column extracts one field as optional numbers, preserving the slice order.
func Column(readings []TimedReading, f Field) []*float64 {
	out := make([]*float64, len(readings))
	for i, r := range readings {
		out[i] = r.Get(f).Ptr()
	}
	return out
}

// QueryKind tags a HistoricalQuery.
type QueryKind string

const (
	QueryCount          QueryKind = "count"
	QueryRelativeWindow QueryKind = "relativeWindow"
	QueryCustomRange    QueryKind = "customRange"
)

// WindowUnit is the span of a relative window.
type WindowUnit string

const (
	UnitDay   WindowUnit = "day"
	UnitWeek  WindowUnit = "week"
	UnitMonth WindowUnit = "month"
)

// DateLayout is the calendar-date format used for query bounds and labels.
const DateLayout = "2006-01-02"

// HistoricalQuery is either a sample count or a calendar-date range.
type HistoricalQuery struct {
	Kind  QueryKind  `json:"kind"`
	N     int        `json:"n,omitempty"`
	Unit  WindowUnit `json:"unit,omitempty"`
	Start time.Time  `json:"start,omitempty"`
	End   time.Time  `json:"end,omitempty"`
}

// CountQuery asks for the last n samples.
func CountQuery(n int) HistoricalQuery { return HistoricalQuery{Kind: QueryCount, N: n} }

// IsCount reports whether q is sample-count based.
func (q HistoricalQuery) IsCount() bool { return q.Kind == QueryCount }

// Validate checks the constraints the feed client relies on.
func (q HistoricalQuery) Validate() error {
	switch q.Kind {
	case QueryCount:
		if q.N <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidCount, q.N)
		}
	case QueryRelativeWindow, QueryCustomRange:
		if q.Start.IsZero() || q.End.IsZero() {
			return ErrMissingRangeBounds
		}
		if q.Start.After(q.End) {
			return ErrInvalidRange
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSelector, q.Kind)
	}
	return nil
}

func (q HistoricalQuery) String() string {
	if q.IsCount() {
		return fmt.Sprintf("last %d", q.N)
	}
	return q.Start.Format(DateLayout) + ".." + q.End.Format(DateLayout)
}

// Date truncates t to its calendar date in t's location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
