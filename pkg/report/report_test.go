package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
	"github.com/dd0wney/apwr-dropcalc/pkg/metrics"
	"github.com/dd0wney/apwr-dropcalc/pkg/project"
	"github.com/dd0wney/apwr-dropcalc/pkg/propagation"
)

func calculate(t *testing.T, totalAnodes int, starts ...int) *calc.Result {
	t.Helper()
	in := calc.DefaultInput(totalAnodes)
	in.Project = project.Info{Name: "Harbour Wall", Number: "P-1042", Date: "2026-03-14", Zone: "Zone B"}
	if len(starts) > 0 {
		in.Topology.LinkStarts = starts
	}
	res, err := calc.Calculate(in)
	require.NoError(t, err)
	return res
}

func TestNewRow_Rounding(t *testing.T) {
	row := NewRow(propagation.Segment{
		Link:             "APWRLINK 1",
		LengthM:          12.5,
		ResistanceOhm:    0.054687512,
		CurrentA:         4.3756,
		DropMV:           239.29449,
		CumulativeDropMV: 1239.2951,
		RemainingV:       46.760705,
		DropPercent:      2.5818645,
	})

	assert.Equal(t, 12.5, row.DistanceM)
	assert.Equal(t, 0.0547, row.ResistanceOhm)
	assert.Equal(t, 4.376, row.CurrentA)
	assert.Equal(t, 239.29, row.DropMV)
	assert.Equal(t, 1239.3, row.CumulativeDropMV)
	assert.Equal(t, 46.76, row.RemainingV)
	assert.Equal(t, 2.58, row.DropPercent)
	assert.Equal(t, "4.376", row.Strings()[5])
	assert.Equal(t, "1239.30", row.Strings()[7])
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"csv": FormatCSV, ".CSV": FormatCSV, "yml": FormatYAML, "text": FormatText, "svg": FormatSVG,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if assert.NoError(t, err, in) {
			assert.Equal(t, want, got, in)
		}
	}
	_, err := ParseFormat("docx")
	assert.Error(t, err)

	assert.True(t, FormatPDF.IsChart())
	assert.False(t, FormatCSV.IsChart())
	assert.Equal(t, "image/png", FormatPNG.ContentType())
}

func TestExportCSV(t *testing.T) {
	res := calculate(t, 24)

	data, err := NewExporter().Bytes(res, Options{Format: FormatCSV})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, Columns, records[0])

	first := records[1]
	assert.Equal(t, []string{"APWRLINK 1", "APWRLINK 1", "APWRHUB 1", "10"}, first[:4])
	assert.Equal(t, "15.000", first[5])
	assert.Equal(t, "APWRHUB 3", records[3][2])
}

func TestExportCSV_SingleLink(t *testing.T) {
	res := calculate(t, 40, 0, 3)

	data, err := NewExporter().Bytes(res, Options{Format: FormatCSV, LinkID: 2})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records[1:] {
		assert.Equal(t, "APWRLINK 2", r[0])
	}

	_, err = NewExporter().Bytes(res, Options{Format: FormatCSV, LinkID: 7})
	assert.True(t, errors.Is(err, calc.ErrUnknownLink))
}

func TestExportJSON(t *testing.T) {
	res := calculate(t, 16)

	data, err := NewExporter().Bytes(res, Options{Format: FormatJSON, Pretty: true})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, res.ID.String(), doc["calculation_id"])
	assert.Equal(t, "OK", doc["status"])

	rows := doc["rows"].([]any)
	require.Len(t, rows, 2)
	row := rows[0].(map[string]any)
	for _, key := range []string{"link", "from", "to", "distance_m", "resistance_ohm", "current_a",
		"drop_mv", "cumulative_drop_mv", "remaining_v", "drop_percent"} {
		assert.Contains(t, row, key)
	}
}

func TestExportYAML(t *testing.T) {
	res := calculate(t, 48)

	data, err := NewExporter().Bytes(res, Options{Format: FormatYAML})
	require.NoError(t, err)

	var doc Document
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "VIOLATION", doc.Status)
	assert.Equal(t, "P-1042", doc.Project.Number)
	require.Len(t, doc.Links, 1)
	assert.Equal(t, 30.0, doc.Links[0].CurrentA)
	assert.Len(t, doc.Rows, 6)
}

func TestPages(t *testing.T) {
	rows := make([]Row, 45)
	pages := Pages(rows, RowsPerPage)
	require.Len(t, pages, 3)
	assert.Len(t, pages[0], 20)
	assert.Len(t, pages[1], 20)
	assert.Len(t, pages[2], 5)

	assert.Empty(t, Pages(nil, RowsPerPage))
	assert.Len(t, Pages(rows, 0), 3, "non-positive page size falls back to the default")
}

func TestWriteTable(t *testing.T) {
	res := calculate(t, 200) // 25 hubs
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, Rows(res.Segments), RowsPerPage))

	out := buf.String()
	assert.Contains(t, out, "Data Table (Page 1/2)")
	assert.Contains(t, out, "Data Table (Page 2/2)")
	assert.Contains(t, out, "Remaining Voltage [V]")
	assert.Contains(t, out, "APWRHUB 25")
}

func TestWriteSummary(t *testing.T) {
	in := calc.DefaultInput(48)
	in.Project = project.Info{Name: "Harbour Wall", Number: "P-1042", Zone: "Zone B"}
	in.Params.CableAreaMM2 = 0.5 // thin cable drives the far hubs under 36 V
	res, err := calc.Calculate(in)
	require.NoError(t, err)
	require.NotEmpty(t, res.Status.UnderVoltageNodes)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, res))
	out := buf.String()

	assert.Contains(t, out, Title)
	assert.Contains(t, out, "Project Name: Harbour Wall")
	assert.Contains(t, out, "Protection Zone: Zone B")
	assert.Contains(t, out, "Total Anodes: 48")
	assert.Contains(t, out, "Allowed ∆Voltage: 25.0%")
	assert.Contains(t, out, "System Status: VIOLATION")
	assert.Contains(t, out, "APWRLINK 1: 30.00 A (EXCEEDS 10 A LIMIT!)")
	assert.Contains(t, out, "WARNING: Voltage below minimum (36 V) at: ")
	assert.Contains(t, out, "WARNING: APWRLINK 1 current (30.00 A) exceeds maximum (10 A)!")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestExport_WriteErrors(t *testing.T) {
	res := calculate(t, 8)
	for _, f := range []Format{FormatCSV, FormatText, FormatJSON} {
		err := NewExporter().Export(failingWriter{}, res, Options{Format: f})
		assert.Error(t, err, f)
	}
}

func TestCharts(t *testing.T) {
	res := calculate(t, 40, 0, 3)
	e := NewExporter()

	png, err := e.Bytes(res, Options{Format: FormatPNG})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")), "combined chart is a PNG")

	svg, err := e.Bytes(res, Options{Format: FormatSVG, LinkID: 1})
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
	assert.Contains(t, string(svg), "Voltage Profile - APWRLINK 1")

	pdf, err := e.Bytes(res, Options{Format: FormatPDF, LinkID: 2})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, err = VoltageProfile(res, 5)
	assert.True(t, errors.Is(err, calc.ErrUnknownLink))
}

func TestFilename(t *testing.T) {
	res := calculate(t, 8)
	assert.Equal(t, "P-1042_voltage_drop.csv", Filename(res, FormatCSV, 0))
	assert.Equal(t, "P-1042_voltage_drop_link3.png", Filename(res, FormatPNG, 3))

	res.Project.Number = "  site/7 b "
	assert.Equal(t, "site_7_b_voltage_drop.txt", Filename(res, FormatText, 0))

	res.Project.Number = ""
	assert.Equal(t, res.ID.String()+"_voltage_drop.json", Filename(res, FormatJSON, 0))
}

func TestExportAll(t *testing.T) {
	res := calculate(t, 40, 0, 3)
	reg := metrics.NewRegistry()
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := NewExporter(WithMetrics(reg)).ExportAll(dir, res, []Format{FormatCSV, FormatText})
	require.NoError(t, err)
	assert.Len(t, paths, 6) // system + 2 links, two formats

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.FileExists(t, filepath.Join(dir, "P-1042_voltage_drop_link2.csv"))

	var m dto.Metric
	require.NoError(t, reg.ReportsTotal.WithLabelValues("csv", "success").Write(&m))
	assert.Equal(t, 3.0, m.Counter.GetValue())
}

type fakePutter struct {
	puts []*s3.PutObjectInput
	body map[string]string
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, _ := io.ReadAll(in.Body)
	if f.body == nil {
		f.body = make(map[string]string)
	}
	f.body[*in.Key] = string(data)
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Publisher_Publish(t *testing.T) {
	res := calculate(t, 40, 0, 3)
	client := &fakePutter{}
	pub := NewS3PublisherWithClient(client, "reports", "apwr/2026")

	uris, err := pub.Publish(context.Background(), NewExporter(), res, []Format{FormatCSV})
	require.NoError(t, err)
	require.Len(t, uris, 3)
	assert.Equal(t, "s3://reports/apwr/2026/P-1042_voltage_drop.csv", uris[0])

	require.Len(t, client.puts, 3)
	assert.Equal(t, "reports", *client.puts[0].Bucket)
	assert.Equal(t, FormatCSV.ContentType(), *client.puts[0].ContentType)
	assert.True(t, strings.HasPrefix(client.body["apwr/2026/P-1042_voltage_drop.csv"], "APWRLINK,From,To"))
}

func TestS3Publisher_PublishFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "P-1_voltage_drop.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	client := &fakePutter{}
	uri, err := NewS3PublisherWithClient(client, "b", "").PublishFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "s3://b/P-1_voltage_drop.json", uri)
	assert.Equal(t, "application/json", *client.puts[0].ContentType)
}

func TestS3Publisher_Errors(t *testing.T) {
	_, err := NewS3Publisher(context.Background(), "", "", "")
	assert.True(t, errors.Is(err, ErrNoBucket))

	reg := metrics.NewRegistry()
	pub := NewS3PublisherWithClient(&fakePutter{err: errors.New("denied")}, "b", "p")
	pub.SetMetrics(reg)

	_, err = pub.Put(context.Background(), "x.csv", FormatCSV, []byte("a"))
	require.Error(t, err)

	var m dto.Metric
	require.NoError(t, reg.ReportPublishErrors.Write(&m))
	assert.Equal(t, 1.0, m.Counter.GetValue())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewS3PublisherWithClient(&fakePutter{}, "b", "").Publish(ctx, NewExporter(), calculate(t, 8), []Format{FormatCSV})
	assert.True(t, errors.Is(err, context.Canceled))
}
