// Package report renders calculation results for people and other tools:
// tables (CSV, JSON, YAML, paged text), the summary page and voltage-profile
// charts. Full-precision values are rounded here and nowhere else.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/dd0wney/apwr-dropcalc/pkg/propagation"
)

// Format represents an export format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "txt" // summary page followed by paged tables
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatPDF  Format = "pdf"
)

// RowsPerPage is the number of table rows on one printed page.
const RowsPerPage = 20

// Columns is the stable header of tabular exports.
var Columns = []string{
	"APWRLINK",
	"From",
	"To",
	"Distance [m]",
	"Resistance [Ω]",
	"Current [A]",
	"∆Voltage [mV]",
	"Cumulative ∆Voltage [mV]",
	"Remaining Voltage [V]",
	"∆Voltage [%]",
}

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatYAML, FormatText, FormatPNG, FormatSVG, FormatPDF}
}

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	if f == "yml" {
		f = FormatYAML
	}
	if f == "text" {
		f = FormatText
	}
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format: %s", s)
}

// IsChart reports whether f is rendered as a chart.
func (f Format) IsChart() bool {
	return f == FormatPNG || f == FormatSVG || f == FormatPDF
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Row is one segment rounded for presentation.
type Row struct {
	Link             string  `json:"link" yaml:"link"`
	From             string  `json:"from" yaml:"from"`
	To               string  `json:"to" yaml:"to"`
	DistanceM        float64 `json:"distance_m" yaml:"distance_m"`
	ResistanceOhm    float64 `json:"resistance_ohm" yaml:"resistance_ohm"`
	CurrentA         float64 `json:"current_a" yaml:"current_a"`
	DropMV           float64 `json:"drop_mv" yaml:"drop_mv"`
	CumulativeDropMV float64 `json:"cumulative_drop_mv" yaml:"cumulative_drop_mv"`
	RemainingV       float64 `json:"remaining_v" yaml:"remaining_v"`
	DropPercent      float64 `json:"drop_percent" yaml:"drop_percent"`
}

// NewRow rounds a segment: Ω to 4 places, A to 3, mV, V and % to 2.
func NewRow(s propagation.Segment) Row {
	return Row{
		Link:             s.Link,
		From:             s.From,
		To:               s.To,
		DistanceM:        s.LengthM,
		ResistanceOhm:    Round(s.ResistanceOhm, 4),
		CurrentA:         Round(s.CurrentA, 3),
		DropMV:           Round(s.DropMV, 2),
		CumulativeDropMV: Round(s.CumulativeDropMV, 2),
		RemainingV:       Round(s.RemainingV, 2),
		DropPercent:      Round(s.DropPercent, 2),
	}
}

// Rows converts segments in order.
func Rows(segments []propagation.Segment) []Row {
	rows := make([]Row, len(segments))
	for i, s := range segments {
		rows[i] = NewRow(s)
	}
	return rows
}

// Strings renders the row in column order.
func (r Row) Strings() []string {
	return []string{
		r.Link,
		r.From,
		r.To,
		formatFloat(r.DistanceM, -1),
		formatFloat(r.ResistanceOhm, 4),
		formatFloat(r.CurrentA, 3),
		formatFloat(r.DropMV, 2),
		formatFloat(r.CumulativeDropMV, 2),
		formatFloat(r.RemainingV, 2),
		formatFloat(r.DropPercent, 2),
	}
}

// Round rounds v half away from zero to places decimals.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func formatFloat(v float64, places int) string {
	if places < 0 {
		return fmt.Sprintf("%g", v)
	}
	return fmt.Sprintf("%.*f", places, v)
}
