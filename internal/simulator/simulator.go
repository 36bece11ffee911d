package simulator

import (
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
)

// Options tunes the generated signal.
type Options struct {
	Seed     int64
	Interval time.Duration
	// Capacity is the number of entries kept per channel.
	Capacity int
	// NullRate is the chance that one field of an entry is sent as null.
	NullRate float64
	// ResetEvery zeroes the energy counter on every n-th entry. Zero disables resets.
	ResetEvery int
}

// Entry is one generated feed entry. Nil values are sent as null.
type Entry struct {
	ID     int
	At     time.Time
	Values [domain.FieldCount]*float64
}

type channel struct {
	id      string
	phase   domain.Phase
	entries []Entry
	nextID  int
	energy  float64
}

// Simulator generates a plausible three-phase feed per channel.
type Simulator struct {
	mu       sync.RWMutex
	rng      *rand.Rand
	opts     Options
	channels map[string]*channel
}

func New(channels map[domain.Phase]string, opts Options) *Simulator {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Second
	}
	if opts.Capacity <= 0 {
		opts.Capacity = 8000
	}
	s := &Simulator{
		rng:      rand.New(rand.NewSource(opts.Seed)),
		opts:     opts,
		channels: make(map[string]*channel, len(channels)),
	}
	for p, id := range channels {
		s.channels[id] = &channel{id: id, phase: p, nextID: 1}
	}
	return s
}

// Interval is the spacing between generated entries.
func (s *Simulator) Interval() time.Duration { return s.opts.Interval }

// Backfill generates entries from `from` up to and including `until`.
func (s *Simulator) Backfill(from, until time.Time) int {
	n := 0
	for at := from; !at.After(until); at = at.Add(s.opts.Interval) {
		s.Step(at)
		n++
	}
	return n
}

// Step appends one entry stamped at to every channel.
func (s *Simulator) Step(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.channels {
		s.append(ch, at.UTC().Truncate(time.Second))
	}
}

func (s *Simulator) append(ch *channel, at time.Time) {
	volts := 230 + s.rng.NormFloat64()*4
	amps := math.Max(0, 4+s.rng.NormFloat64()*1.2)
	if s.rng.Float64() < 0.02 {
		amps *= 3
	}
	pf := 0.85 + s.rng.Float64()*0.14
	apparent := volts * amps
	active := apparent * pf
	reactive := math.Sqrt(math.Max(0, apparent*apparent-active*active))
	freq := 50 + s.rng.NormFloat64()*0.05

	if s.opts.ResetEvery > 0 && ch.nextID%s.opts.ResetEvery == 0 {
		ch.energy = 0
	}
	ch.energy += active * s.opts.Interval.Hours() / 1000

	e := Entry{ID: ch.nextID, At: at}
	for i, v := range []float64{volts, amps, active, apparent, reactive, pf, freq, ch.energy} {
		v := round(v, 3)
		e.Values[i] = &v
	}
	if s.opts.NullRate > 0 && s.rng.Float64() < s.opts.NullRate {
		e.Values[s.rng.Intn(domain.FieldCount)] = nil
	}
	ch.nextID++

	ch.entries = append(ch.entries, e)
	if len(ch.entries) >= 2*s.opts.Capacity {
		ch.entries = append(ch.entries[:0:0], s.kept(ch)...)
	}
}

// kept is the newest Capacity entries of a channel.
func (s *Simulator) kept(ch *channel) []Entry {
	if over := len(ch.entries) - s.opts.Capacity; over > 0 {
		return ch.entries[over:]
	}
	return ch.entries
}

// Last returns the newest n entries of a channel in ascending order.
func (s *Simulator) Last(id string, n int) ([]Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[id]
	if !ok {
		return nil, false
	}
	entries := s.kept(ch)
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]Entry, n)
	copy(out, entries[len(entries)-n:])
	return out, true
}

// Between returns the entries of a channel stamped within [start, end].
func (s *Simulator) Between(id string, start, end time.Time) ([]Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[id]
	if !ok {
		return nil, false
	}
	var out []Entry
	for _, e := range s.kept(ch) {
		if e.At.Before(start) || e.At.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out, true
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func formatValue(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
