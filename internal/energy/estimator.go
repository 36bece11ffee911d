// Package energy turns raw cumulative meter readings into consumption over a window.
package energy

import (
	"math"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
)

// Result is the consumption over a window at full precision.
type Result struct {
	Total float64 `json:"total"`
}

// Rounded returns Total rounded to 3 decimals for display.
func (r Result) Rounded() float64 { return Round3(r.Total) }

// Round3 rounds half away from zero to 3 decimals.
func Round3(v float64) float64 { return math.Round(v*1000) / 1000 }

// Options tunes reset detection.
type Options struct {
	// ResetTolerance is the largest drop treated as sensor noise instead of a counter reset.
	// Zero means every drop is a reset.
	ResetTolerance float64
}

// Estimator accumulates deltas of a monotonically increasing counter that may restart.
type Estimator struct {
	opts Options
}

// NewEstimator builds an estimator. Negative tolerances are treated as zero.
func NewEstimator(opts Options) *Estimator {
	if opts.ResetTolerance < 0 || math.IsNaN(opts.ResetTolerance) {
		opts.ResetTolerance = 0
	}
	return &Estimator{opts: opts}
}

// Cumulative is the default estimator with no noise tolerance.
func Cumulative(values []*float64) Result {
	return NewEstimator(Options{}).Estimate(values)
}

// Estimate walks values in the given order, which must already be time-ascending.
// Nil entries are skipped. The first valid value only seeds the running counter.
// A rise adds the difference; a drop is a counter reset and adds the post-reset value.
func (e *Estimator) Estimate(values []*float64) Result {
	var (
		total    float64
		previous float64
		seeded   bool
	)
	for _, v := range values {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		current := *v
		if !seeded {
			previous = current
			seeded = true
			continue
		}
		if current >= previous {
			total += current - previous
			previous = current
			continue
		}
		if e.opts.ResetTolerance > 0 && previous-current <= e.opts.ResetTolerance {
			// noise dip: keep the high-water mark
			continue
		}
		total += current
		previous = current
	}
	return Result{Total: total}
}

// FromReadings sorts readings by timestamp and estimates consumption of one field.
func (e *Estimator) FromReadings(readings []domain.TimedReading, f domain.Field) Result {
	return e.Estimate(domain.Column(domain.SortedAscending(readings), f))
}
