package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/sink"
)

type frameRecorder struct{ frames []sink.Frame }

func (r *frameRecorder) Publish(_ context.Context, f sink.Frame) error {
	r.frames = append(r.frames, f)
	return nil
}

func (r *frameRecorder) count(typ string) int {
	n := 0
	for _, f := range r.frames {
		if f.Type == typ {
			n++
		}
	}
	return n
}

func TestPollerTickPublishesSnapshotAndSeries(t *testing.T) {
	f := newFakeFeed()
	f.set(domain.Phase1, []domain.TimedReading{reading(time.Minute, 2), reading(0, 1)}, nil)
	rec := &frameRecorder{}
	p := &Poller{App: newApp(f), Sink: rec, History: true}

	p.Tick(context.Background())
	if rec.count(sink.FrameSnapshot) != 1 || rec.count(sink.FrameSeries) != domain.FieldCount {
		t.Fatalf("unexpected frames: %d snapshot, %d series", rec.count(sink.FrameSnapshot), rec.count(sink.FrameSeries))
	}
	if rec.frames[0].Snapshot.Fields[0].Raw != "2" {
		t.Fatalf("snapshot should use the newest reading")
	}
}

func TestPollerTickPublishesNoticeOnFailure(t *testing.T) {
	f := newFakeFeed()
	f.set(domain.Phase1, nil, fmt.Errorf("%w: timeout", domain.ErrFeedUnavailable))
	rec := &frameRecorder{}
	p := &Poller{App: newApp(f), Sink: rec}

	p.Tick(context.Background())
	if len(rec.frames) != 1 || rec.frames[0].Type != sink.FrameNotice || rec.frames[0].Notice == "" {
		t.Fatalf("expected a single notice frame, got %+v", rec.frames)
	}
}
