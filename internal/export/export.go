// Package export renders assembled reports as documents.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/report"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatPNG  Format = "png"
)

// ParseFormat defaults to JSON.
func ParseFormat(s string) (Format, error) {
	// constants are returned so the result never aliases s
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unsupported report format %q", s)
}

// ContentType is the MIME type of a rendered format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPNG:
		return "image/png"
	}
	return "application/json"
}

// FileName is the download name for a report.
func (f Format) FileName(r report.Report) string {
	return fmt.Sprintf("%s-%s-%s.%s", r.Phase, r.Field, r.GeneratedAt.Format("20060102-150405"), f)
}

// Render dispatches to the document renderers. JSON is handled by the caller.
func Render(f Format, r report.Report) ([]byte, error) {
	switch f {
	case FormatPDF:
		return PDF(r)
	case FormatXLSX:
		return XLSX(r)
	case FormatPNG:
		return ChartPNG(r)
	}
	return nil, fmt.Errorf("unsupported report format %q", f)
}

// PDF renders the summary, the chart and the series table.
func PDF(r report.Report) ([]byte, error) {
	png, err := ChartPNG(r)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, fmt.Sprintf("%s Energy Report", r.PhaseTitle))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Field: %s (%s)", r.FieldLabel, unitOrDash(r.Unit)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s", r.PeriodLabel))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", r.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("First valid reading: %.3f at %s", r.FirstValidReading.Value, r.FirstValidReading.At.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Last reading: %.3f at %s", r.LastReading.Value, r.LastReading.At.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total consumption: %.3f kWh (%.6f MWh)", r.TotalConsumption, r.TotalMWh))
	pdf.Ln(5)
	if r.EstimatedCost > 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Estimated cost: %.2f", r.EstimatedCost))
		pdf.Ln(5)
	}
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Min %.3f  Max %.3f  Average %.3f  (%d of %d valid)",
		r.Stats.Min, r.Stats.Max, r.Stats.Average, r.Stats.Valid, r.Stats.Count))
	pdf.Ln(8)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("chart", opts, bytes.NewReader(png))
	pdf.ImageOptions("chart", 10, pdf.GetY(), 190, 0, true, opts, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Time", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, fmt.Sprintf("%s (%s)", r.FieldLabel, unitOrDash(r.Unit)), "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for i, label := range r.SeriesLabels {
		value := "-"
		if r.SeriesValid[i] {
			value = fmt.Sprintf("%.3f", r.SeriesValues[i])
		}
		pdf.CellFormat(70, 6, label, "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, value, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// XLSX writes a summary sheet and a readings sheet. Invalid readings are left blank.
func XLSX(r report.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	readingsSheet := "readings"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(readingsSheet)

	rows := [][]interface{}{
		{"Energy Report"},
		{},
		{"Phase", r.PhaseTitle},
		{"Field", r.FieldLabel},
		{"Unit", r.Unit},
		{"Period", r.PeriodLabel},
		{"Generated", r.GeneratedAt.Format(time.RFC3339)},
		{"First valid reading", r.FirstValidReading.Value},
		{"Last reading", r.LastReading.Value},
		{"Total consumption (kWh)", r.TotalConsumption},
		{"Total consumption (MWh)", r.TotalMWh},
		{"Estimated cost", r.EstimatedCost},
		{"Min", r.Stats.Min},
		{"Max", r.Stats.Max},
		{"Average", r.Stats.Average},
		{"Valid readings", r.Stats.Valid},
		{"Readings", r.Stats.Count},
	}
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(summarySheet, cell, v)
		}
	}

	_ = f.SetCellValue(readingsSheet, "A1", "Time")
	_ = f.SetCellValue(readingsSheet, "B1", r.FieldLabel)
	for i, label := range r.SeriesLabels {
		row := i + 2
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("A%d", row), label)
		if r.SeriesValid[i] {
			_ = f.SetCellValue(readingsSheet, fmt.Sprintf("B%d", row), r.SeriesValues[i])
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unitOrDash(u string) string {
	if u == "" {
		return "-"
	}
	return u
}
