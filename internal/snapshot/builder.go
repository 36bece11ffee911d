// Package snapshot builds the classified live view from the newest complete reading.
package snapshot

import (
	"time"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/threshold"
)

// Tuple is one field of the live view.
type Tuple struct {
	Field          domain.Field             `json:"-"`
	Key            string                   `json:"key"`
	Label          string                   `json:"label"`
	Unit           string                   `json:"unit"`
	Raw            string                   `json:"raw"`
	Numeric        *float64                 `json:"numeric"`
	Classification threshold.Classification `json:"classification"`
	Tone           string                   `json:"tone"`
}

// Snapshot is the classified view of a single reading.
type Snapshot struct {
	Phase  domain.Phase `json:"phase"`
	At     time.Time    `json:"at"`
	Fields []Tuple      `json:"fields"`
}

// Breaches returns the tuples outside their bands.
func (s Snapshot) Breaches() []Tuple {
	var out []Tuple
	for _, t := range s.Fields {
		if t.Classification.Breach() {
			out = append(out, t)
		}
	}
	return out
}

// Latest returns the newest reading with every field populated, scanning newest to oldest.
func Latest(readings []domain.TimedReading) (domain.TimedReading, error) {
	for _, r := range domain.SortedDescending(readings) {
		if r.Complete() {
			return r, nil
		}
	}
	return domain.TimedReading{}, domain.ErrNoDataInWindow
}

// Build picks the latest complete reading and classifies it.
func Build(phase domain.Phase, readings []domain.TimedReading, c *threshold.Classifier) (Snapshot, error) {
	r, err := Latest(readings)
	if err != nil {
		return Snapshot{}, err
	}
	return Classify(phase, r, c), nil
}

// Classify produces one tuple per field for a reading using the classifier's live bands.
func Classify(phase domain.Phase, r domain.TimedReading, c *threshold.Classifier) Snapshot {
	s := Snapshot{Phase: phase, At: r.At, Fields: make([]Tuple, 0, domain.FieldCount)}
	for _, f := range domain.Fields() {
		d := f.Descriptor()
		v := r.Get(f)
		class := c.ClassifyValue(d.Parameter, v)
		s.Fields = append(s.Fields, Tuple{
			Field:          f,
			Key:            d.Key,
			Label:          d.Label,
			Unit:           d.Unit,
			Raw:            v.Raw,
			Numeric:        v.Ptr(),
			Classification: class,
			Tone:           class.Tone(),
		})
	}
	return s
}
