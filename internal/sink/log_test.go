package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
)

func TestLogSinkWarnsOnBreaches(t *testing.T) {
	var buf bytes.Buffer
	l := &LogSink{Logger: zerolog.New(&buf)}

	if err := l.Publish(context.Background(), SnapshotFrame(breachSnapshot(domain.Phase3))); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["level"] != "warn" || line["phase"] != "phase3" || line["voltage"] != "250" {
		t.Fatalf("unexpected log line %v", line)
	}
	if line["breaches"] != float64(2) {
		t.Fatalf("expected 2 breaches, got %v", line["breaches"])
	}
}
