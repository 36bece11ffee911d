package sink

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/snapshot"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/threshold"
)

// Alerter sends one out-of-band notification.
type Alerter interface {
	SendThresholdAlert(ctx context.Context, phase domain.Phase, at time.Time, t snapshot.Tuple, band string) error
}

// AlertSink notifies on BELOW/ABOVE tuples of snapshot frames, at most once per
// phase and field within the cooldown.
type AlertSink struct {
	alerter  Alerter
	bands    *threshold.Classifier
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time
}

func NewAlertSink(a Alerter, bands *threshold.Classifier, cooldown time.Duration) *AlertSink {
	return &AlertSink{
		alerter:  a,
		bands:    bands,
		cooldown: cooldown,
		now:      time.Now,
		sent:     make(map[string]time.Time),
	}
}

func (s *AlertSink) Publish(ctx context.Context, f Frame) error {
	if f.Type != FrameSnapshot || f.Snapshot == nil {
		return nil
	}
	var errs []error
	for _, t := range f.Snapshot.Breaches() {
		if !s.due(f.Phase, t.Field) {
			continue
		}
		band := s.bands.Band(t.Field.Parameter()).String()
		if err := s.alerter.SendThresholdAlert(ctx, f.Phase, f.At, t, band); err != nil {
			s.forget(f.Phase, t.Field)
			errs = append(errs, observe("sns", err))
			continue
		}
		observe("sns", nil)
	}
	return errors.Join(errs...)
}

// due claims the slot for phase+field if the cooldown has passed.
func (s *AlertSink) due(phase domain.Phase, f domain.Field) bool {
	key := string(phase) + "/" + f.Key()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if last, ok := s.sent[key]; ok && now.Sub(last) < s.cooldown {
		return false
	}
	s.sent[key] = now
	return true
}

func (s *AlertSink) forget(phase domain.Phase, f domain.Field) {
	s.mu.Lock()
	delete(s.sent, string(phase)+"/"+f.Key())
	s.mu.Unlock()
}
