package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
	"github.com/dd0wney/apwr-dropcalc/pkg/config"
	"github.com/dd0wney/apwr-dropcalc/pkg/project"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
	"github.com/dd0wney/apwr-dropcalc/pkg/validation"
)

// inputFlags are the command-line alternatives to a project file.
type inputFlags struct {
	projectPath   string
	anodes        int
	links         string
	sourceLengths string
	// Nil unless the flag was given, so an explicit 0 still applies.
	distanceM *float64
	areaMM2   *float64
	model         string

	name   string
	number string
	zone   string
	date   string
}

// parseHubList reads 1-based hub numbers ("1, 5, 9") as 0-based indices.
func parseHubList(field, s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, validation.NewError(field).Value(part).Reason("must be a hub number of at least 1").Build()
		}
		out = append(out, n-1)
	}
	return out, nil
}

// parseFloatList reads a comma-separated list of non-negative numbers.
func parseFloatList(field, s string) ([]float64, error) {
	var out []float64
	for i, part := range splitList(s) {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return nil, validation.NewError(fmt.Sprintf("%s[%d]", field, i)).Value(part).Reason("must be a non-negative number").Build()
		}
		out = append(out, v)
	}
	return out, nil
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

// buildInput assembles a calculation input. A project file supplies the
// topology; otherwise the flags do. Parameter flags override either.
func buildInput(f inputFlags, params config.SystemParams) (calc.Input, error) {
	var in calc.Input

	if f.projectPath != "" {
		file, err := project.LoadWith(f.projectPath, params)
		if err != nil {
			return in, err
		}
		if in, err = calc.InputFromProject(file); err != nil {
			return in, err
		}
	} else {
		in = calc.Input{
			Project:  project.Info{Name: f.name, Number: f.number, Zone: f.zone, Date: f.date},
			Params:   params,
			Topology: topology.DefaultSpec(f.anodes),
		}
		if err := applyLayoutFlags(&in.Topology, f); err != nil {
			return in, err
		}
	}

	if f.areaMM2 != nil {
		in.Params.CableAreaMM2 = *f.areaMM2
	}
	if f.model != "" {
		in.Params.CableModel = strings.ToLower(f.model)
	}
	return in, nil
}

func applyLayoutFlags(spec *topology.Spec, f inputFlags) error {
	if f.distanceM != nil {
		spec.DefaultDistanceM = *f.distanceM
	}
	if f.links != "" {
		starts, err := parseHubList("links", f.links)
		if err != nil {
			return err
		}
		spec.LinkStarts = starts
	}
	if f.sourceLengths != "" {
		lengths, err := parseFloatList("source_lengths", f.sourceLengths)
		if err != nil {
			return err
		}
		spec.SourceLengthsM = make(map[int]float64, len(lengths))
		for i, l := range lengths {
			spec.SourceLengthsM[i+1] = l
		}
	}
	return nil
}
