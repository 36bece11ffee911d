package threshold

import (
	"errors"
	"sync"
	"testing"
	"unsafe"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestClassifyAgainstBand(t *testing.T) {
	c := New()
	if err := c.SetBand("voltage", ptr(10), ptr(20)); err != nil {
		t.Fatalf("set band: %v", err)
	}
	cases := map[string]Classification{
		"5":   Below,
		"15":  Within,
		"25":  Above,
		"10":  Within,
		"20":  Within,
		"abc": Unclassifiable,
		"":    Unclassifiable,
	}
	for raw, want := range cases {
		if got := c.Classify("voltage", raw); got != want {
			t.Fatalf("Classify(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	c := New()
	_ = c.SetBand("frequency", ptr(49.5), ptr(50.5))
	first := c.Classify("frequency", "51")
	second := c.Classify("frequency", "51")
	if first != second || first != Above {
		t.Fatalf("expected stable ABOVE, got %s then %s", first, second)
	}
}

func TestUnboundedSidesNeverTrigger(t *testing.T) {
	c := New()
	if got := c.Classify("current", "-1e9"); got != Within {
		t.Fatalf("fully unbounded band must classify WITHIN, got %s", got)
	}
	_ = c.SetBand("current", nil, ptr(16))
	if got := c.Classify("current", "-1e9"); got != Within {
		t.Fatalf("missing min must not yield BELOW, got %s", got)
	}
	if got := c.Classify("current", "17"); got != Above {
		t.Fatalf("expected ABOVE, got %s", got)
	}
	_ = c.SetBand("current", ptr(1), nil)
	if got := c.Classify("current", "1e9"); got != Within {
		t.Fatalf("missing max must not yield ABOVE, got %s", got)
	}
}

func TestSetBandTextNormalizesGarbageToUnbounded(t *testing.T) {
	c := New()
	_ = c.SetBand("energy", ptr(1), ptr(2))
	if err := c.SetBandText("energy", "oops", "100"); err != nil {
		t.Fatalf("set band text: %v", err)
	}
	b := c.Band("energy")
	if b.Min != nil {
		t.Fatalf("unparseable min must become unbounded, got %v", *b.Min)
	}
	if b.Max == nil || *b.Max != 100 {
		t.Fatalf("max not saved: %+v", b)
	}
}

func TestSetBandRejectsUnknownParameter(t *testing.T) {
	c := New()
	if err := c.SetBand("temperature", nil, nil); !errors.Is(err, domain.ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got %v", err)
	}
}

func TestBandIsCopied(t *testing.T) {
	c := New()
	lower := 5.0
	_ = c.SetBand("voltage", &lower, nil)
	lower = 500
	if got := c.Classify("voltage", "10"); got != Within {
		t.Fatalf("caller mutation leaked into classifier: %s", got)
	}
	b := c.Band("voltage")
	*b.Min = 1000
	if got := c.Classify("voltage", "10"); got != Within {
		t.Fatalf("returned band mutation leaked into classifier: %s", got)
	}
}

func TestConcurrentSaveAndClassify(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(v float64) {
			defer wg.Done()
			if err := c.SetBand("voltage", ptr(v), ptr(v+10)); err != nil {
				t.Errorf("set band: %v", err)
			}
		}(float64(i))
		go func() {
			defer wg.Done()
			if got := c.Classify("voltage", "abc"); got != Unclassifiable {
				t.Errorf("unexpected %s", got)
			}
		}()
	}
	wg.Wait()
	b := c.Band("voltage")
	if b.Min == nil || b.Max == nil || *b.Max-*b.Min != 10 {
		t.Fatalf("band torn by concurrent saves: %+v", b)
	}
}

func TestSetBandDoesNotKeepCallerString(t *testing.T) {
	// a request router may hand out strings backed by a buffer it later reuses
	buf := []byte("voltage")
	parameter := unsafe.String(&buf[0], len(buf))

	c := New()
	if err := c.SetBand(parameter, ptr(200), ptr(220)); err != nil {
		t.Fatalf("set band: %v", err)
	}
	copy(buf, "current")

	if got := c.Classify("voltage", "230"); got != Above {
		t.Fatalf("saved voltage band was lost, classified %s", got)
	}
	if _, ok := c.Bands()["voltage"]; !ok {
		t.Fatalf("voltage key missing from %v", c.Bands())
	}
	if b := c.Band("current"); b.Min != nil || b.Max != nil {
		t.Fatalf("current band must stay unbounded, got %s", b)
	}
}

func TestSetBandsText(t *testing.T) {
	c := New()
	err := c.SetBandsText(map[string]BandText{"voltage": {Min: "bogus"}, "nope": {Max: "1"}})
	if !errors.Is(err, domain.ErrUnknownParameter) {
		t.Fatalf("expected unknown parameter, got %v", err)
	}
	if b := c.Band("voltage"); b.Min != nil || b.Max != nil {
		t.Fatalf("nothing may be saved when one parameter is unknown")
	}

	if err := c.SetBandsText(map[string]BandText{"voltage": {Max: "240"}, "frequency": {Min: "49.5", Max: "50.5"}}); err != nil {
		t.Fatalf("set bands: %v", err)
	}
	if c.Classify("voltage", "250") != Above || c.Classify("frequency", "49") != Below {
		t.Fatalf("configured bands not applied: %v", c.Bands())
	}
}
