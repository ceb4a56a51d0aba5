package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
	"github.com/dd0wney/apwr-dropcalc/pkg/project"
)

// Document is the JSON and YAML shape of an export.
type Document struct {
	CalculationID string       `json:"calculation_id" yaml:"calculation_id"`
	CalculatedAt  string       `json:"calculated_at" yaml:"calculated_at"`
	Project       project.Info `json:"project" yaml:"project"`
	Status        string       `json:"status" yaml:"status"`
	Links         []LinkLine   `json:"links" yaml:"links"`
	Rows          []Row        `json:"rows" yaml:"rows"`
}

// LinkLine is the per-link status line of a document.
type LinkLine struct {
	Link               string   `json:"link" yaml:"link"`
	Status             string   `json:"status" yaml:"status"`
	CurrentA           float64  `json:"current_a" yaml:"current_a"`
	MinRemainingV      float64  `json:"min_remaining_v" yaml:"min_remaining_v"`
	MaxDropPercent     float64  `json:"max_drop_percent" yaml:"max_drop_percent"`
	AllowedDropPercent float64  `json:"allowed_drop_percent" yaml:"allowed_drop_percent"`
	ViolatingNodes     []string `json:"violating_nodes,omitempty" yaml:"violating_nodes,omitempty"`
}

// NewDocument rounds res for export.
func NewDocument(res *calc.Result) Document {
	doc := Document{
		CalculationID: res.ID.String(),
		CalculatedAt:  res.CalculatedAt.Format(time.RFC3339),
		Project:       res.Project,
		Rows:          Rows(res.Segments),
	}
	if res.Status != nil {
		doc.Status = string(res.Status.Status)
		for _, l := range res.Status.Links {
			doc.Links = append(doc.Links, LinkLine{
				Link:               l.LinkName,
				Status:             string(l.Status),
				CurrentA:           Round(l.CurrentA, 3),
				MinRemainingV:      Round(l.MinRemainingV, 2),
				MaxDropPercent:     Round(l.MaxDropPercent, 2),
				AllowedDropPercent: Round(l.AllowedDropPercent, 2),
				ViolatingNodes:     l.ViolatingNodes,
			})
		}
	}
	return doc
}

// exportCSV exports the segment table as CSV
func exportCSV(writer io.Writer, res *calc.Result) (retErr error) {
	csvWriter := csv.NewWriter(writer)
	defer func() {
		// Always flush: csv.Writer buffers
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			if retErr == nil {
				retErr = fmt.Errorf("CSV writer flush error: %w", err)
			}
		}
	}()

	if err := csvWriter.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range Rows(res.Segments) {
		if err := csvWriter.Write(row.Strings()); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	return nil
}

// exportJSON exports the document as a single JSON object
func exportJSON(writer io.Writer, res *calc.Result, pretty bool) error {
	encoder := json.NewEncoder(writer)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(NewDocument(res))
}

// exportYAML exports the document as YAML
func exportYAML(writer io.Writer, res *calc.Result) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(NewDocument(res)); err != nil {
		return fmt.Errorf("failed to write YAML: %w", err)
	}
	return encoder.Close()
}
