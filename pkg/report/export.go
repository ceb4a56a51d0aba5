package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
	"github.com/dd0wney/apwr-dropcalc/pkg/metrics"
)

// Options holds options for one export
type Options struct {
	Format Format
	// LinkID restricts the export to one link; 0 exports the whole system.
	LinkID int
	// Pretty indents JSON output
	Pretty bool
}

// Exporter writes results in the supported formats
type Exporter struct {
	metrics *metrics.Registry
	chart   ChartOptions
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithMetrics counts every export in r.
func WithMetrics(r *metrics.Registry) ExporterOption {
	return func(e *Exporter) { e.metrics = r }
}

// WithChartOptions overrides the chart size.
func WithChartOptions(o ChartOptions) ExporterOption {
	return func(e *Exporter) { e.chart = o }
}

// NewExporter creates an exporter
func NewExporter(opts ...ExporterOption) *Exporter {
	e := &Exporter{chart: DefaultChartOptions()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes res to writer in the requested format
func (e *Exporter) Export(writer io.Writer, res *calc.Result, options Options) error {
	if options.LinkID != 0 {
		linkRes, err := res.ForLink(options.LinkID)
		if err != nil {
			return err
		}
		res = linkRes
	}

	cw := &countingWriter{w: writer}
	err := e.export(cw, res, options)
	e.record(options.Format, cw.n, err)
	return err
}

func (e *Exporter) export(writer io.Writer, res *calc.Result, options Options) error {
	switch options.Format {
	case FormatCSV:
		return exportCSV(writer, res)
	case FormatJSON:
		return exportJSON(writer, res, options.Pretty)
	case FormatYAML:
		return exportYAML(writer, res)
	case FormatText:
		if err := WriteSummary(writer, res); err != nil {
			return err
		}
		return WriteTable(writer, Rows(res.Segments), RowsPerPage)
	case FormatPNG, FormatSVG, FormatPDF:
		var p Chart
		var err error
		if options.LinkID != 0 {
			p, err = VoltageProfile(res, options.LinkID)
		} else {
			p, err = CombinedProfile(res)
		}
		if err != nil {
			return err
		}
		return p.Render(writer, options.Format, e.chart)
	default:
		return fmt.Errorf("unsupported export format: %s", options.Format)
	}
}

// Bytes renders an export in memory.
func (e *Exporter) Bytes(res *calc.Result, options Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Export(&buf, res, options); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportToFile exports res to a file
func (e *Exporter) ExportToFile(filename string, res *calc.Result, options Options) (retErr error) {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			if retErr == nil {
				retErr = fmt.Errorf("failed to close export file: %w", closeErr)
			}
		}
	}()

	retErr = e.Export(file, res, options)
	return retErr
}

// ExportAll writes the combined report and one report per link for each
// format into dir and returns the paths written.
func (e *Exporter) ExportAll(dir string, res *calc.Result, formats []Format) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	targets := append([]int{0}, res.LinkIDs()...)
	paths := make([]string, 0, len(formats)*len(targets))
	for _, f := range formats {
		for _, id := range targets {
			path := filepath.Join(dir, Filename(res, f, id))
			if err := e.ExportToFile(path, res, Options{Format: f, LinkID: id, Pretty: true}); err != nil {
				return paths, fmt.Errorf("export %s: %w", path, err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename builds a file name such as "P-1042_voltage_drop_link2.csv". The
// project number is used when set, else the calculation id.
func Filename(res *calc.Result, f Format, linkID int) string {
	base := strings.TrimSpace(res.Project.Number)
	if base == "" {
		base = res.ID.String()
	}
	base = strings.Trim(unsafeName.ReplaceAllString(base, "_"), "_")

	name := base + "_voltage_drop"
	if linkID != 0 {
		name += fmt.Sprintf("_link%d", linkID)
	}
	return name + "." + string(f)
}

func (e *Exporter) record(f Format, n int64, err error) {
	if e.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	e.metrics.RecordReport(string(f), status, n)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
