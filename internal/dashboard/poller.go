package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/sink"
)

// Poller refreshes the live view on a fixed interval and pushes every applied update
// to a display sink.
type Poller struct {
	App      *App
	Sink     sink.Sink
	Interval time.Duration
	// History also refreshes the per-field charts every tick.
	History bool
}

// Run polls until ctx is done. The first poll happens immediately.
func (p *Poller) Run(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p.Tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Tick runs one refresh cycle.
func (p *Poller) Tick(ctx context.Context) {
	s, err := p.App.RefreshRealtime(ctx)
	switch {
	case err == nil:
		p.publish(ctx, sink.SnapshotFrame(s))
	case errors.Is(err, domain.ErrStaleResponse):
		return
	default:
		if n, ok := p.App.Notice(); ok {
			p.publish(ctx, sink.NoticeFrame(n.Phase, n.At, n.Message))
		}
	}

	if !p.History {
		return
	}
	if err := p.App.RefreshAllHistory(ctx); err != nil && !errors.Is(err, domain.ErrStaleResponse) {
		log.Debug().Err(err).Msg("history refresh incomplete")
	}
	phase := p.App.Phase()
	for _, f := range domain.Fields() {
		if series, ok := p.App.Series(f); ok {
			p.publish(ctx, sink.SeriesFrame(phase, p.App.opts.Now(), series))
		}
	}
}

func (p *Poller) publish(ctx context.Context, f sink.Frame) {
	if p.Sink == nil {
		return
	}
	if err := p.Sink.Publish(ctx, f); err != nil {
		log.Warn().Err(err).Str("frame", f.Type).Str("phase", string(f.Phase)).Msg("sink publish failed")
	}
}
