package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
)

// Title heads every printed report.
const Title = "APWRLINK / APWRHUB Voltage Drop Analysis"

// WriteSummary writes the information page: project, parameters, hub
// configuration and system status with every warning.
func WriteSummary(writer io.Writer, res *calc.Result) error {
	w := &errWriter{w: writer}

	w.printf("%s\n%s\n\n", Title, strings.Repeat("=", len(Title)))

	info := res.Project
	w.printf("Project Name: %s\n", info.Name)
	w.printf("Project Number: %s\n", info.Number)
	w.printf("Date: %s\n", info.Date)
	w.printf("Protection Zone: %s\n", info.Zone)
	w.printf("Calculation: %s\n\n", res.ID)

	p := res.Params
	totalAnodes := 0
	for _, h := range res.Hubs {
		totalAnodes += h.Anodes()
	}
	w.printf("System Parameters:\n")
	w.printf("  Total Anodes: %d\n", totalAnodes)
	w.printf("  Cable Cross-Section: %g mm²\n", p.CableAreaMM2)
	w.printf("  Cable Model: %s\n", p.CableModel)
	w.printf("  Source Voltage: %g V\n", p.SourceVoltageV)
	w.printf("  Reference Voltage: %g V\n", p.ReferenceVoltageV)
	w.printf("  Minimum Working Voltage: %g V\n", p.MinVoltageV)
	w.printf("  Maximum APWRLINK Current: %g A\n", p.MaxLinkCurrentA)
	w.printf("  Allowed ∆Voltage: %.1f%%\n", p.AllowedDropPercent())
	w.printf("  Total APWRHUBs: %d\n\n", len(res.Hubs))

	w.printf("APWRHUB Configuration:\n")
	for _, h := range res.Hubs {
		mode := "default"
		if h.Manual {
			mode = "manual"
		}
		w.printf("  • %s - APWRLINK %d: %d anodes (%s), Current: %g mA, Distance: %g m\n",
			h.Name, h.LinkID, h.Anodes(), mode, h.CurrentMA, h.DistanceM)
	}

	s := res.Status
	if s == nil {
		return w.err
	}
	w.printf("\nSystem Status: %s\n", s.Status)
	w.printf("  Total System Current: %.3f A\n", s.TotalCurrentA)
	w.printf("  Lowest Voltage Point: %.2f V\n", s.LowestVoltageV)
	w.printf("  Maximum ∆Voltage: %.1f mV (%.2f%%)\n\n", s.MaxDropMV, s.MaxDropPercent)

	w.printf("APWRLINK Current Status:\n")
	for _, l := range s.Links {
		w.printf("  • %s: %.2f A", l.LinkName, l.CurrentA)
		if l.OverCurrent {
			w.printf(" (EXCEEDS %g A LIMIT!)", p.MaxLinkCurrentA)
		}
		w.printf(", lowest %.2f V, %s\n", l.MinRemainingV, l.Status)
	}

	if len(s.UnderVoltageNodes) > 0 {
		w.printf("\nWARNING: Voltage below minimum (%g V) at: %s\n",
			p.MinVoltageV, strings.Join(s.UnderVoltageNodes, ", "))
	}
	for _, l := range s.Links {
		if l.OverCurrent {
			w.printf("\nWARNING: %s current (%.2f A) exceeds maximum (%g A)!\n",
				l.LinkName, l.CurrentA, p.MaxLinkCurrentA)
		}
	}
	w.printf("\n")
	return w.err
}

// errWriter keeps the first write error so a long report does not need a
// check after every line.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	if _, err := fmt.Fprintf(e.w, format, args...); err != nil {
		e.err = fmt.Errorf("failed to write report: %w", err)
	}
}
