package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
	"github.com/dd0wney/apwr-dropcalc/pkg/propagation"
)

// ChartOptions sizes rendered charts.
type ChartOptions struct {
	Width  vg.Length
	Height vg.Length
	// WidthPerNode widens charts of long links so labels do not overlap.
	WidthPerNode vg.Length
}

// DefaultChartOptions returns a 10x6 inch chart that grows with the link.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{Width: 10 * vg.Inch, Height: 6 * vg.Inch, WidthPerNode: 0.8 * vg.Inch}
}

var (
	voltageColor = color.RGBA{R: 0x2e, G: 0x9c, B: 0xdb, A: 0xff}
	limitColor   = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

// Chart is a plot plus the number of nodes on its x axis.
type Chart struct {
	*plot.Plot
	nodes int
}

// Render writes the chart in f, which must be a chart format.
func (c Chart) Render(w io.Writer, f Format, o ChartOptions) error {
	width := max(o.Width, vg.Length(c.nodes)*o.WidthPerNode)
	wt, err := c.Plot.WriterTo(width, o.Height, string(f))
	if err != nil {
		return fmt.Errorf("render %s chart: %w", f, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// profile returns the voltage at every node of one link: the source
// followed by each hub.
func profile(segments []propagation.Segment, sourceV float64) (plotter.XYs, []string) {
	xys := make(plotter.XYs, 0, len(segments)+1)
	labels := make([]string, 0, len(segments)+1)
	if len(segments) > 0 {
		xys = append(xys, plotter.XY{X: 0, Y: sourceV})
		labels = append(labels, segments[0].From)
	}
	for i, s := range segments {
		xys = append(xys, plotter.XY{X: float64(i + 1), Y: s.RemainingV})
		labels = append(labels, s.To)
	}
	return xys, labels
}

// VoltageProfile charts the remaining voltage along one link against the
// minimum working voltage.
func VoltageProfile(res *calc.Result, linkID int) (Chart, error) {
	segs := propagation.FilterByLink(res.Segments, linkID)
	if len(segs) == 0 {
		return Chart{}, fmt.Errorf("%w: %d", calc.ErrUnknownLink, linkID)
	}

	p := newPlot(fmt.Sprintf("Voltage Profile - %s", segs[0].Link), "Segment")
	xys, labels := profile(segs, res.Params.SourceVoltageV)

	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return Chart{}, err
	}
	line.Color = voltageColor
	line.Width = vg.Points(2)
	points.Color = voltageColor
	points.Shape = draw.CircleGlyph{}
	p.Add(line, points)
	p.Legend.Add("Voltage [V]", line, points)

	if err := addLimit(p, res, len(labels)); err != nil {
		return Chart{}, err
	}
	p.X.Tick.Marker = nodeTicks(labels)
	return Chart{Plot: p, nodes: len(labels)}, nil
}

// CombinedProfile overlays the voltage profile of every link.
func CombinedProfile(res *calc.Result) (Chart, error) {
	p := newPlot("Voltage Profile - All APWRLINKs", "Node along link")

	groups := propagation.GroupByLink(res.Segments)
	nodes := 0
	for i, id := range propagation.LinkIDs(res.Segments) {
		segs := groups[id]
		xys, labels := profile(segs, res.Params.SourceVoltageV)
		nodes = max(nodes, len(labels))

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return Chart{}, err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(2)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)
		p.Legend.Add(segs[0].Link, line, points)
	}

	if err := addLimit(p, res, nodes); err != nil {
		return Chart{}, err
	}
	return Chart{Plot: p, nodes: nodes}, nil
}

func newPlot(title, xLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Voltage [V]"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

// addLimit draws the minimum working voltage across nodes and fixes the y
// range so the limit is always visible.
func addLimit(p *plot.Plot, res *calc.Result, nodes int) error {
	floor := res.Params.MinVoltageV
	limit, err := plotter.NewLine(plotter.XYs{
		{X: 0, Y: floor},
		{X: float64(max(nodes-1, 1)), Y: floor},
	})
	if err != nil {
		return err
	}
	limit.Color = limitColor
	limit.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(limit)
	p.Legend.Add(fmt.Sprintf("Min Voltage %g V (max ∆Voltage %.1f%%)",
		floor, res.Params.AllowedDropPercent()), limit)

	lowest := floor
	if res.Status != nil {
		lowest = min(lowest, res.Status.LowestVoltageV)
	}
	p.Y.Min = lowest - 1
	p.Y.Max = res.Params.SourceVoltageV + 1
	return nil
}

// nodeTicks labels integer x positions with node names, thinning the labels
// on long links so at most about ten are shown.
func nodeTicks(labels []string) plot.Ticker {
	return plot.TickerFunc(func(_, _ float64) []plot.Tick {
		step := max(1, len(labels)/10)
		ticks := make([]plot.Tick, 0, len(labels))
		for i, l := range labels {
			if i%step != 0 && i != len(labels)-1 {
				l = ""
			}
			ticks = append(ticks, plot.Tick{Value: float64(i), Label: l})
		}
		return ticks
	})
}
