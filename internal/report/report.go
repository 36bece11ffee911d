// Package report assembles the summary handed to document exporters.
package report

import (
	"math"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/aggregator"
	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/converter"
	"github.com/google/uuid"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/energy"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/window"
)

// Meta describes the window a report covers.
type Meta struct {
	Phase    domain.Phase
	Selector window.Selector
	Query    domain.HistoricalQuery
}

// Point is a single timestamped valid reading.
type Point struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

type Stats struct {
	Count         int       `json:"count"`
	Valid         int       `json:"valid"`
	Min           float64   `json:"min"`
	Max           float64   `json:"max"`
	Average       float64   `json:"average"`
	MovingAverage []float64 `json:"moving_average"`
}

// Report is fully resolved: exporters never fetch.
type Report struct {
	ID                string       `json:"id"`
	Phase             domain.Phase `json:"phase"`
	PhaseTitle        string       `json:"phase_title"`
	Field             string       `json:"field"`
	FieldLabel        string       `json:"field_label"`
	Unit              string       `json:"unit"`
	PeriodLabel       string       `json:"period_label"`
	FirstValidReading Point        `json:"first_valid_reading"`
	LastReading       Point        `json:"last_reading"`
	TotalConsumption  float64      `json:"total_consumption"`
	TotalMWh          float64      `json:"total_mwh"`
	EstimatedCost     float64      `json:"estimated_cost"`
	SeriesLabels      []string     `json:"series_labels"`
	SeriesValues      []float64    `json:"series_values"`
	SeriesValid       []bool       `json:"series_valid"`
	Stats             Stats        `json:"stats"`
	GeneratedAt       time.Time    `json:"generated_at"`
}

// Tariff prices consumption through the analytics converter. A zero rate disables costing.
type Tariff struct {
	Rate float64
	Tier string
}

// Assembler holds the tunables shared by every report.
type Assembler struct {
	Energy        energy.Options
	MovingAverage int
	Tariff        Tariff
	Now           func() time.Time
}

// NewAssembler returns an assembler with a 5-point moving average.
func NewAssembler(opts energy.Options, movingAverage int, tariff Tariff) *Assembler {
	if movingAverage <= 0 {
		movingAverage = 5
	}
	return &Assembler{Energy: opts, MovingAverage: movingAverage, Tariff: tariff, Now: time.Now}
}

// Assemble builds the report for one field. ErrNoDataInWindow when no reading is valid.
func (a *Assembler) Assemble(meta Meta, readings []domain.TimedReading, f domain.Field) (Report, error) {
	if !f.Valid() {
		return Report{}, domain.ErrUnknownField
	}
	series := window.BuildSeries(readings, f, window.LabelLayout(meta.Query))

	points := make([]aggregator.Point, 0, series.Len())
	for i, ok := range series.Valid {
		if ok {
			points = append(points, aggregator.Point{Value: series.Values[i], Timestamp: series.Times[i]})
		}
	}
	if len(points) == 0 {
		return Report{}, domain.ErrNoDataInWindow
	}

	values := make([]*float64, series.Len())
	for i := range series.Values {
		if series.Valid[i] {
			v := series.Values[i]
			values[i] = &v
		}
	}
	// derived figures use the full-precision total; only the displayed kWh is rounded
	consumption := energy.NewEstimator(a.Energy).Estimate(values)
	total := consumption.Total

	conv := &converter.EnergyConverter{}
	r := Report{
		ID:                uuid.NewString(),
		Phase:             meta.Phase,
		PhaseTitle:        meta.Phase.Title(),
		Field:             series.Key,
		FieldLabel:        series.Label,
		Unit:              series.Unit,
		PeriodLabel:       window.PeriodLabel(meta.Selector, meta.Query),
		FirstValidReading: Point{At: points[0].Timestamp, Value: points[0].Value},
		LastReading:       Point{At: points[len(points)-1].Timestamp, Value: points[len(points)-1].Value},
		TotalConsumption:  consumption.Rounded(),
		TotalMWh:          conv.KWhToMWh(total),
		SeriesLabels:      series.Labels,
		SeriesValues:      series.Values,
		SeriesValid:       series.Valid,
		Stats:             a.stats(series.Len(), points),
		GeneratedAt:       a.now(),
	}
	if a.Tariff.Rate > 0 {
		r.EstimatedCost = conv.CalculateCost(total, a.Tariff.Rate, a.Tariff.Tier)
	}
	return r, nil
}

func (a *Assembler) stats(count int, points []aggregator.Point) Stats {
	s := Stats{
		Count:   count,
		Valid:   len(points),
		Min:     math.Inf(1),
		Max:     math.Inf(-1),
		Average: energy.Round3(aggregator.Average(points)),
	}
	for _, p := range points {
		s.Min = math.Min(s.Min, p.Value)
		s.Max = math.Max(s.Max, p.Value)
	}
	if len(points) >= a.MovingAverage {
		s.MovingAverage = aggregator.MovingAverage(points, a.MovingAverage)
	}
	return s
}

func (a *Assembler) now() time.Time {
	if a.Now == nil {
		return time.Now().UTC()
	}
	return a.Now().UTC()
}
