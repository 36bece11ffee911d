package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseFieldAcceptsKeyAndParameter(t *testing.T) {
	f, err := ParseField("field8")
	if err != nil || f != FieldEnergy {
		t.Fatalf("expected energy field, got %v err=%v", f, err)
	}
	f, err = ParseField("realPower")
	if err != nil || f != FieldRealPower {
		t.Fatalf("expected real power field, got %v err=%v", f, err)
	}
	if _, err := ParseField("field9"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestRegistryIsIndexedByField(t *testing.T) {
	for _, f := range Fields() {
		d := f.Descriptor()
		if d.ID != f {
			t.Fatalf("descriptor %s carries id %d", d.Key, d.ID)
		}
		back, ok := FieldForParameter(d.Parameter)
		if !ok || back != f {
			t.Fatalf("parameter %s maps to %v", d.Parameter, back)
		}
	}
	if FieldPowerFactor.Unit() != "" {
		t.Fatalf("power factor is unitless")
	}
}

func TestValueFloat(t *testing.T) {
	cases := []struct {
		in   Value
		want float64
		ok   bool
	}{
		{TextValue("230.5"), 230.5, true},
		{TextValue(" 12 "), 12, true},
		{TextValue("abc"), 0, false},
		{TextValue("NaN"), 0, false},
		{TextValue(""), 0, false},
		{NullValue, 0, false},
	}
	for _, c := range cases {
		got, ok := c.in.Float()
		if ok != c.ok || got != c.want {
			t.Fatalf("Float(%+v) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestSortingDoesNotTrustSourceOrder(t *testing.T) {
	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	in := []TimedReading{{At: base.Add(2 * time.Minute)}, {At: base}, {At: base.Add(time.Minute)}}
	asc := SortedAscending(in)
	if !asc[0].At.Equal(base) || !asc[2].At.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("ascending order wrong: %v", asc)
	}
	desc := SortedDescending(in)
	if !desc[0].At.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("descending order wrong: %v", desc)
	}
	if !in[0].At.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("input slice must not be reordered")
	}
}

func TestHistoricalQueryValidate(t *testing.T) {
	if err := CountQuery(0).Validate(); !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount, got %v", err)
	}
	q := HistoricalQuery{Kind: QueryCustomRange}
	if err := q.Validate(); !errors.Is(err, ErrMissingRangeBounds) {
		t.Fatalf("expected ErrMissingRangeBounds, got %v", err)
	}
	q.Start = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	q.End = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := q.Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase("Phase2")
	if err != nil || p != Phase2 {
		t.Fatalf("got %v err=%v", p, err)
	}
	if p.Title() != "Phase 2" {
		t.Fatalf("title = %q", p.Title())
	}
	if _, err := ParsePhase("phase4"); !errors.Is(err, ErrUnknownPhase) {
		t.Fatalf("expected ErrUnknownPhase, got %v", err)
	}
}
