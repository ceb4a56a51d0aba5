package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
	"github.com/dd0wney/apwr-dropcalc/pkg/config"
	"github.com/dd0wney/apwr-dropcalc/pkg/project"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
	"github.com/dd0wney/apwr-dropcalc/pkg/validation"
)

// Setup form fields in display order.
const (
	fieldName = iota
	fieldNumber
	fieldDate
	fieldZone
	fieldAnodes
	fieldLinks
	fieldSourceLengths
	fieldDistance
	fieldArea
	fieldModel
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Project Name",
	"Project Number",
	"Date (YYYY-MM-DD)",
	"Protection Zone",
	"Total Anodes",
	"Link Start Hubs",
	"Source Lengths [m]",
	"Default Distance [m]",
	"Cable Cross-Section [mm²]",
	"Cable Model",
}

var fieldPlaceholders = [fieldCount]string{
	"Harbour Wall",
	"P-1042",
	"2026-03-14",
	"Zone B",
	"40",
	"1, 4",
	"25, 30",
	"10",
	"4",
	"one-way or round-trip",
}

// newForm builds the setup inputs prefilled from params and date.
func newForm(params config.SystemParams, date string) []textinput.Model {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = fieldPlaceholders[i]
		ti.CharLimit = 64
		ti.Width = 30
		inputs[i] = ti
	}
	inputs[fieldDate].SetValue(date)
	inputs[fieldAnodes].SetValue("8")
	inputs[fieldLinks].SetValue("1")
	inputs[fieldDistance].SetValue(strconv.FormatFloat(topology.DefaultDistanceM, 'f', -1, 64))
	inputs[fieldArea].SetValue(strconv.FormatFloat(params.CableAreaMM2, 'f', -1, 64))
	inputs[fieldModel].SetValue(params.CableModel)
	inputs[fieldName].Focus()
	return inputs
}

func formValue(inputs []textinput.Model, field int) string {
	return strings.TrimSpace(inputs[field].Value())
}

// formInput turns the form and hub overrides into a calculation input. Every
// unparseable field is reported at once; range checks are left to calc.
func formInput(inputs []textinput.Model, params config.SystemParams, hubs map[int]topology.HubConfig) (calc.Input, error) {
	c := validation.NewCollector("")

	in := calc.Input{
		Project: project.Info{
			Name:   formValue(inputs, fieldName),
			Number: formValue(inputs, fieldNumber),
			Date:   formValue(inputs, fieldDate),
			Zone:   formValue(inputs, fieldZone),
		},
		Params:   params,
		Topology: topology.DefaultSpec(0),
	}

	if n, err := strconv.Atoi(formValue(inputs, fieldAnodes)); err != nil {
		c.Fail("total_anodes", formValue(inputs, fieldAnodes), "must be a whole number")
	} else {
		in.Topology.TotalAnodes = n
	}

	in.Topology.LinkStarts = nil
	for _, part := range splitList(formValue(inputs, fieldLinks)) {
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			c.Fail("link_starts", part, "must be hub numbers starting at 1")
			continue
		}
		in.Topology.LinkStarts = append(in.Topology.LinkStarts, n-1)
	}

	for i, part := range splitList(formValue(inputs, fieldSourceLengths)) {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			c.Fail(fmt.Sprintf("source_lengths[%d]", i), part, "must be a number")
			continue
		}
		if in.Topology.SourceLengthsM == nil {
			in.Topology.SourceLengthsM = make(map[int]float64)
		}
		in.Topology.SourceLengthsM[i+1] = v
	}

	parseFloat := func(field int, name string, dst *float64) {
		s := formValue(inputs, field)
		if s == "" {
			return
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			c.Fail(name, s, "must be a number")
			return
		}
		*dst = v
	}
	parseFloat(fieldDistance, "default_distance_m", &in.Topology.DefaultDistanceM)
	parseFloat(fieldArea, "cable_area_mm2", &in.Params.CableAreaMM2)

	if m := strings.ToLower(formValue(inputs, fieldModel)); m != "" {
		in.Params.CableModel = m
	}

	if len(hubs) > 0 {
		in.Topology.Hubs = make(map[int]topology.HubConfig, len(hubs))
		for i, h := range hubs {
			in.Topology.Hubs[i] = h
		}
	}
	return in, c.Err()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseCurrents reads a hub's anode currents: a single value applies to
// every anode, a list must name each one.
func parseCurrents(s string, anodes int) ([]float64, error) {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil, fmt.Errorf("enter one current or %d", anodes)
	}
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", p)
		}
		values = append(values, v)
	}
	if len(values) == 1 {
		out := make([]float64, anodes)
		for i := range out {
			out[i] = values[0]
		}
		return out, nil
	}
	if len(values) != anodes {
		return nil, fmt.Errorf("hub has %d anodes, got %d currents", anodes, len(values))
	}
	return values, nil
}
