package energy

import (
	"math"
	"testing"
	"time"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
)

func vals(in ...any) []*float64 {
	out := make([]*float64, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case float64:
			f := x
			out[i] = &f
		case int:
			f := float64(x)
			out[i] = &f
		case nil:
			out[i] = nil
		}
	}
	return out
}

func TestEstimateWithCounterReset(t *testing.T) {
	got := Cumulative(vals(5, 8, 2, 6)).Total
	if got != 9 {
		t.Fatalf("expected 9 (3 + 2 + 4), got %v", got)
	}
}

func TestEstimateMonotonicEqualsLastMinusFirstValid(t *testing.T) {
	seq := vals(nil, 10.5, 11.25, 11.25, 13, nil, 20.125)
	got := Cumulative(seq).Total
	want := 20.125 - 10.5
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEstimateDegenerateInputs(t *testing.T) {
	cases := map[string][]*float64{
		"empty":         nil,
		"all null":      vals(nil, nil, nil),
		"single valid":  vals(42),
		"single padded": vals(nil, 42, nil),
	}
	for name, seq := range cases {
		if got := Cumulative(seq).Total; got != 0 {
			t.Fatalf("%s: expected 0, got %v", name, got)
		}
	}
}

func TestEstimateSkipsGapsWithoutBridgingAsZero(t *testing.T) {
	// a null in the middle must not be read as a reset to zero
	got := Cumulative(vals(100, nil, 101, nil, nil, 103)).Total
	if got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
}

func TestEstimateMultipleResets(t *testing.T) {
	// 1->4 (+3), reset to 1 (+1), 1->3 (+2), reset to 0.5 (+0.5), 0.5->2 (+1.5)
	got := Cumulative(vals(1, 4, 1, 3, 0.5, 2)).Total
	if math.Abs(got-8) > 1e-9 {
		t.Fatalf("expected 8, got %v", got)
	}
	naive := 2.0 - 1.0
	if got <= naive {
		t.Fatalf("reset-tolerant total must exceed naive last-minus-first")
	}
}

func TestResultRounding(t *testing.T) {
	r := Cumulative(vals(0.1, 0.2, 0.3004))
	if r.Total == r.Rounded() {
		t.Fatalf("underlying total must keep full precision")
	}
	if r.Rounded() != 0.2 {
		t.Fatalf("expected rounded 0.2, got %v", r.Rounded())
	}
}

func TestResetToleranceTreatsSmallDipsAsNoise(t *testing.T) {
	seq := vals(10, 10.5, 10.49, 11)
	if got := Cumulative(seq).Total; math.Abs(got-(0.5+10.49+0.51)) > 1e-9 {
		t.Fatalf("default policy must treat the dip as a reset, got %v", got)
	}
	e := NewEstimator(Options{ResetTolerance: 0.05})
	if got := e.Estimate(seq).Total; math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected 1 with noise tolerance, got %v", got)
	}
	if got := e.Estimate(vals(5, 8, 2, 6)).Total; got != 9 {
		t.Fatalf("true resets still count with tolerance, got %v", got)
	}
}

func TestFromReadingsSortsByTimestamp(t *testing.T) {
	base := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	mk := func(offset time.Duration, v string) domain.TimedReading {
		r := domain.TimedReading{At: base.Add(offset)}
		r.Values[domain.FieldEnergy] = domain.TextValue(v)
		return r
	}
	// newest first, as some query shapes return it
	readings := []domain.TimedReading{
		mk(3*time.Minute, "6"),
		mk(2*time.Minute, "2"),
		mk(time.Minute, "8"),
		mk(0, "5"),
	}
	got := NewEstimator(Options{}).FromReadings(readings, domain.FieldEnergy).Total
	if got != 9 {
		t.Fatalf("expected 9 after sorting, got %v", got)
	}
}
