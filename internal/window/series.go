package window

import (
	"time"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
)

// Series is a label/value line for one field, oldest first.
type Series struct {
	Field  domain.Field `json:"-"`
	Key    string       `json:"key"`
	Label  string       `json:"label"`
	Unit   string       `json:"unit"`
	Times  []time.Time  `json:"times"`
	Labels []string     `json:"labels"`
	Values []float64    `json:"values"`
	Valid  []bool       `json:"valid"`
}

// Len is the number of points.
func (s Series) Len() int { return len(s.Values) }

// ValidCount is the number of points that carried a real number.
func (s Series) ValidCount() int {
	n := 0
	for _, ok := range s.Valid {
		if ok {
			n++
		}
	}
	return n
}

// BuildSeries sorts readings ascending and plots one field. Missing or non-numeric
// values are charted as 0 and flagged in Valid.
func BuildSeries(readings []domain.TimedReading, f domain.Field, layout string) Series {
	d := f.Descriptor()
	sorted := domain.SortedAscending(readings)
	s := Series{
		Field:  f,
		Key:    d.Key,
		Label:  d.Label,
		Unit:   d.Unit,
		Times:  make([]time.Time, len(sorted)),
		Labels: make([]string, len(sorted)),
		Values: make([]float64, len(sorted)),
		Valid:  make([]bool, len(sorted)),
	}
	for i, r := range sorted {
		s.Times[i] = r.At
		s.Labels[i] = r.At.Format(layout)
		if v, ok := r.Get(f).Float(); ok {
			s.Values[i] = v
			s.Valid[i] = true
		}
	}
	return s
}
