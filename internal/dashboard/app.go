// Package dashboard holds the application state shared by every front door: the current
// phase, the live threshold bands and the last successfully displayed views.
//
// Fetches run without holding the state lock. A result is applied only if the phase (and,
// for per-field history, the field's limit) is still the one the fetch was started for;
// otherwise it is discarded with domain.ErrStaleResponse.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/energy"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/feed"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/observability/metrics"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/report"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/snapshot"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/threshold"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/window"
)

const (
	ViewRealtime = "realtime"
	ViewHistory  = "history"
	ViewSetPoint = "setpoint"
	ViewReport   = "report"
)

type Options struct {
	Phase            domain.Phase
	FieldLimit       int
	SetPointLimit    int
	RealtimeLookback int
	ReportLastN      int
	Energy           energy.Options
	MovingAverage    int
	Tariff           report.Tariff
	Now              func() time.Time
}

func (o *Options) defaults() {
	if o.Phase == "" {
		o.Phase = domain.Phase1
	}
	if o.FieldLimit <= 0 {
		o.FieldLimit = 10
	}
	if o.SetPointLimit <= 0 {
		o.SetPointLimit = 50
	}
	if o.RealtimeLookback <= 0 {
		o.RealtimeLookback = 10
	}
	if o.ReportLastN <= 0 {
		o.ReportLastN = 100
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Notice is the user-visible record of the last failed refresh.
type Notice struct {
	At      time.Time    `json:"at"`
	Phase   domain.Phase `json:"phase"`
	View    string       `json:"view"`
	Message string       `json:"message"`
}

type App struct {
	feed      feed.Fetcher
	bands     *threshold.Classifier
	resolver  *window.Resolver
	assembler *report.Assembler
	opts      Options

	mu       sync.RWMutex
	phase    domain.Phase
	epoch    uint64
	limits   [domain.FieldCount]int
	limitGen [domain.FieldCount]uint64
	reading  *domain.TimedReading
	snap     *snapshot.Snapshot
	series   [domain.FieldCount]*window.Series
	notice   *Notice
}

func New(f feed.Fetcher, bands *threshold.Classifier, opts Options) *App {
	opts.defaults()
	if bands == nil {
		bands = threshold.New()
	}
	a := &App{
		feed:      f,
		bands:     bands,
		resolver:  window.NewResolver(opts.Now, opts.ReportLastN),
		opts:      opts,
		phase:     opts.Phase,
		assembler: report.NewAssembler(opts.Energy, opts.MovingAverage, opts.Tariff),
	}
	a.assembler.Now = opts.Now
	for i := range a.limits {
		a.limits[i] = opts.FieldLimit
	}
	return a
}

// Thresholds exposes the live classifier.
func (a *App) Thresholds() *threshold.Classifier { return a.bands }

func (a *App) Phase() domain.Phase {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.phase
}

// SetPhase switches the active phase and drops everything derived from the previous one.
// Fetches already in flight for the old phase will be discarded when they complete.
func (a *App) SetPhase(p domain.Phase) error {
	if _, err := domain.ParsePhase(string(p)); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if p == a.phase {
		return nil
	}
	a.phase = p
	a.epoch++
	a.reading = nil
	a.snap = nil
	a.series = [domain.FieldCount]*window.Series{}
	a.notice = nil
	log.Info().Str("phase", string(p)).Uint64("epoch", a.epoch).Msg("Phase switched")
	return nil
}

type ticket struct {
	phase domain.Phase
	epoch uint64
}

func (a *App) begin() ticket {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return ticket{phase: a.phase, epoch: a.epoch}
}

// current must be called with a.mu held.
func (a *App) current(t ticket) bool { return t.epoch == a.epoch }

// RefreshRealtime fetches the latest readings and replaces the live snapshot.
func (a *App) RefreshRealtime(ctx context.Context) (snapshot.Snapshot, error) {
	t := a.begin()
	readings, err := a.feed.Fetch(ctx, t.phase, domain.CountQuery(a.opts.RealtimeLookback))
	var latest domain.TimedReading
	if err == nil {
		latest, err = snapshot.Latest(readings)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.current(t) {
		return snapshot.Snapshot{}, a.stale(ViewRealtime, t)
	}
	if err != nil {
		a.fail(ViewRealtime, t, err)
		return snapshot.Snapshot{}, err
	}
	// bands are read at apply time so a save made during the fetch is honoured
	s := snapshot.Classify(t.phase, latest, a.bands)
	a.reading = &latest
	a.snap = &s
	for _, tuple := range s.Fields {
		metrics.IncClassification(tuple.Field.Parameter(), string(tuple.Classification))
	}
	metrics.IncRefresh(ViewRealtime, metrics.ResultSuccess)
	return s, nil
}

// Snapshot returns the last applied live view.
func (a *App) Snapshot() (snapshot.Snapshot, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.snap == nil {
		return snapshot.Snapshot{}, false
	}
	return *a.snap, true
}

// FieldLimit is the history length shown for a field.
func (a *App) FieldLimit(f domain.Field) int {
	if !f.Valid() {
		return 0
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.limits[f]
}

// SetFieldLimit changes a field's history length. Non-positive values are ignored.
func (a *App) SetFieldLimit(f domain.Field, n int) bool {
	if !f.Valid() || n <= 0 {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.limits[f] != n {
		a.limits[f] = n
		a.limitGen[f]++
	}
	return true
}

// RefreshField re-fetches one field's history chart.
func (a *App) RefreshField(ctx context.Context, f domain.Field) (window.Series, error) {
	if !f.Valid() {
		return window.Series{}, domain.ErrUnknownField
	}
	a.mu.RLock()
	t := ticket{phase: a.phase, epoch: a.epoch}
	limit, gen := a.limits[f], a.limitGen[f]
	a.mu.RUnlock()

	q := domain.CountQuery(limit)
	readings, err := a.feed.Fetch(ctx, t.phase, q)

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.current(t) || a.limitGen[f] != gen {
		return window.Series{}, a.stale(ViewHistory, t)
	}
	if err != nil {
		a.fail(ViewHistory, t, err)
		return window.Series{}, err
	}
	s := window.BuildSeries(readings, f, window.LabelLayout(q))
	a.series[f] = &s
	metrics.IncRefresh(ViewHistory, metrics.ResultSuccess)
	return s, nil
}

// RefreshAllHistory refreshes every field chart concurrently and reports the first failure.
// A failing field keeps its previous chart; the others still update.
func (a *App) RefreshAllHistory(ctx context.Context) error {
	var g errgroup.Group
	for _, f := range domain.Fields() {
		g.Go(func() error {
			_, err := a.RefreshField(ctx, f)
			return err
		})
	}
	return g.Wait()
}

// Series returns the last applied history chart of a field.
func (a *App) Series(f domain.Field) (window.Series, bool) {
	if !f.Valid() {
		return window.Series{}, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.series[f] == nil {
		return window.Series{}, false
	}
	return *a.series[f], true
}

// SetPointPreview charts a longer history of one field next to the threshold form.
func (a *App) SetPointPreview(ctx context.Context, f domain.Field) (window.Series, error) {
	if !f.Valid() {
		return window.Series{}, domain.ErrUnknownField
	}
	t := a.begin()
	q := domain.CountQuery(a.opts.SetPointLimit)
	readings, err := a.feed.Fetch(ctx, t.phase, q)

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.current(t) {
		return window.Series{}, a.stale(ViewSetPoint, t)
	}
	if err != nil {
		a.fail(ViewSetPoint, t, err)
		return window.Series{}, err
	}
	metrics.IncRefresh(ViewSetPoint, metrics.ResultSuccess)
	return window.BuildSeries(readings, f, window.LabelLayout(q)), nil
}

// SetBand saves a threshold band and recolours the held snapshot without a fetch.
func (a *App) SetBand(parameter string, lower, upper *float64) error {
	if err := a.bands.SetBand(parameter, lower, upper); err != nil {
		return err
	}
	a.reclassify()
	return nil
}

// SetBandText is SetBand for raw form input.
func (a *App) SetBandText(parameter, minText, maxText string) error {
	if err := a.bands.SetBandText(parameter, minText, maxText); err != nil {
		return err
	}
	a.reclassify()
	return nil
}

func (a *App) reclassify() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.reading == nil || a.snap == nil {
		return
	}
	s := snapshot.Classify(a.snap.Phase, *a.reading, a.bands)
	a.snap = &s
}

// Report resolves the range, fetches it for the active phase and assembles the summary.
// Range errors are returned before any fetch.
func (a *App) Report(ctx context.Context, sel window.Selector, b window.Bounds, f domain.Field) (report.Report, error) {
	if !f.Valid() {
		return report.Report{}, domain.ErrUnknownField
	}
	q, err := a.resolver.Resolve(sel, b)
	if err != nil {
		return report.Report{}, err
	}

	t := a.begin()
	readings, err := a.feed.Fetch(ctx, t.phase, q)

	a.mu.Lock()
	stale := !a.current(t)
	if stale {
		err = a.stale(ViewReport, t)
	} else if err != nil {
		a.fail(ViewReport, t, err)
	}
	a.mu.Unlock()
	if err != nil {
		return report.Report{}, err
	}

	r, err := a.assembler.Assemble(report.Meta{Phase: t.phase, Selector: sel, Query: q}, readings, f)
	if err != nil {
		a.mu.Lock()
		if a.current(t) {
			a.fail(ViewReport, t, err)
		}
		a.mu.Unlock()
		return report.Report{}, err
	}
	metrics.IncRefresh(ViewReport, metrics.ResultSuccess)
	return r, nil
}

// Notice returns the last failure, if any is pending.
func (a *App) Notice() (Notice, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.notice == nil {
		return Notice{}, false
	}
	return *a.notice, true
}

// ClearNotice dismisses the pending notice.
func (a *App) ClearNotice() {
	a.mu.Lock()
	a.notice = nil
	a.mu.Unlock()
}

// fail must be called with a.mu held. Displayed state is left untouched.
func (a *App) fail(view string, t ticket, err error) {
	a.notice = &Notice{At: a.opts.Now(), Phase: t.phase, View: view, Message: noticeText(err)}
	metrics.IncRefresh(view, metrics.ResultError)
	log.Warn().Err(err).Str("phase", string(t.phase)).Str("view", view).Msg("Refresh failed, keeping previous state")
}

func (a *App) stale(view string, t ticket) error {
	metrics.IncRefresh(view, metrics.ResultStale)
	log.Debug().Str("phase", string(t.phase)).Str("view", view).Msg("Discarding stale response")
	return domain.ErrStaleResponse
}

func noticeText(err error) string {
	switch {
	case errors.Is(err, domain.ErrFeedUnavailable):
		return "Telemetry source unavailable, showing last known values"
	case errors.Is(err, domain.ErrNoDataInWindow):
		return "No data in the selected window"
	case errors.Is(err, domain.ErrMissingRangeBounds):
		return "Select both a start and an end date"
	}
	return err.Error()
}
