// Package sink delivers classified snapshots and chart series to display collaborators.
package sink

import (
	"context"
	"errors"
	"time"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/observability/metrics"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/snapshot"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/window"
)

const (
	FrameSnapshot = "snapshot"
	FrameSeries   = "series"
	FrameNotice   = "notice"
)

// Frame is one display update. Exactly one payload is set, matching Type.
type Frame struct {
	Type     string             `json:"type"`
	Phase    domain.Phase       `json:"phase"`
	At       time.Time          `json:"at"`
	Snapshot *snapshot.Snapshot `json:"snapshot,omitempty"`
	Series   *window.Series     `json:"series,omitempty"`
	Notice   string             `json:"notice,omitempty"`
}

func SnapshotFrame(s snapshot.Snapshot) Frame {
	return Frame{Type: FrameSnapshot, Phase: s.Phase, At: s.At, Snapshot: &s}
}

func SeriesFrame(phase domain.Phase, at time.Time, s window.Series) Frame {
	return Frame{Type: FrameSeries, Phase: phase, At: at, Series: &s}
}

func NoticeFrame(phase domain.Phase, at time.Time, msg string) Frame {
	return Frame{Type: FrameNotice, Phase: phase, At: at, Notice: msg}
}

type Sink interface {
	Publish(ctx context.Context, f Frame) error
}

// Multi fans a frame out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, f Frame) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func observe(name string, err error) error {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.IncSinkPublish(name, result)
	return err
}
