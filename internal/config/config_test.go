package config

import (
	"testing"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/threshold"
)

func TestThresholdBandsFromEnvironment(t *testing.T) {
	t.Setenv("THRESHOLD_VOLTAGE_MAX", "240")
	t.Setenv("THRESHOLD_REALPOWER_MIN", "0")
	t.Setenv("THRESHOLD_REALPOWER_MAX", "1500")
	if err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	bands := ThresholdBands()
	if len(bands) != 2 {
		t.Fatalf("expected 2 configured bands, got %v", bands)
	}
	if bands["voltage"] != (threshold.BandText{Max: "240"}) {
		t.Fatalf("unexpected voltage band %+v", bands["voltage"])
	}
	if bands["realPower"] != (threshold.BandText{Min: "0", Max: "1500"}) {
		t.Fatalf("unexpected realPower band %+v", bands["realPower"])
	}

	c := threshold.New()
	if err := c.SetBandsText(bands); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if c.Classify("voltage", "250") != threshold.Above {
		t.Fatalf("configured voltage band not applied")
	}
}
