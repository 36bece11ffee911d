package export

import (
	"bytes"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/report"
)

const (
	chartWidth  = 1024
	chartHeight = 400
)

// ChartPNG renders the report series as a line chart. Gaps are drawn at 0.
func ChartPNG(r report.Report) ([]byte, error) {
	if len(r.SeriesValues) == 0 {
		return nil, fmt.Errorf("chart: empty series")
	}

	xs := make([]float64, len(r.SeriesValues))
	for i := range xs {
		xs[i] = float64(i)
	}
	ys := append([]float64(nil), r.SeriesValues...)
	// a single point has no x range to draw across
	if len(xs) == 1 {
		xs = append(xs, 1)
		ys = append(ys, ys[0])
	}

	labels := r.SeriesLabels
	ch := chart.Chart{
		Title:      fmt.Sprintf("%s %s (%s)", r.PhaseTitle, r.FieldLabel, r.PeriodLabel),
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					i := int(math.Round(f))
					if i >= 0 && i < len(labels) {
						return labels[i]
					}
				}
				return ""
			},
		},
		YAxis: chart.YAxis{Name: r.Unit, Range: yRange(ys)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    r.FieldLabel,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("1f77b4"),
					StrokeWidth: 2,
				},
			},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart: render: %w", err)
	}
	return buf.Bytes(), nil
}

// yRange pads flat series so the axis never has a zero span.
func yRange(ys []float64) *chart.ContinuousRange {
	lo, hi := ys[0], ys[0]
	for _, v := range ys[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
