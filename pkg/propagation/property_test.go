package propagation

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/apwr-dropcalc/pkg/cable"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
)

// randomTopology derives a valid topology from generated values. Bit i of
// startMask marks hub i+1 as a link start; hub 0 always starts link 1.
func randomTopology(total int, distances []float64, startMask uint8, currentMA float64) (*topology.Topology, error) {
	spec := topology.DefaultSpec(total)
	spec.DefaultAnodeCurrentMA = currentMA
	hubCount := topology.HubCount(total, spec.AnodesPerHub)

	spec.Hubs = make(map[int]topology.HubConfig, hubCount)
	for i := 0; i < hubCount; i++ {
		d := distances[i%len(distances)]
		spec.Hubs[i] = topology.HubConfig{DistanceM: &d}
		if i > 0 && i <= 8 && startMask&(1<<(i-1)) != 0 {
			spec.LinkStarts = append(spec.LinkStarts, i)
		}
	}
	return topology.Build(spec)
}

func TestSegmentInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	run := func(total int, distances []float64, mask uint8, current, area float64) ([]Segment, bool) {
		topo, err := randomTopology(total, distances, mask, current)
		if err != nil {
			return nil, false
		}
		e := &Engine{Model: cable.Default(), AreaMM2: area, SourceV: 48, ReferenceV: 48}
		segs, err := e.Propagate(topo)
		return segs, err == nil
	}

	args := []gopter.Gen{
		gen.IntRange(1, 96),
		gen.SliceOfN(8, gen.Float64Range(0, 250)),
		gen.UInt8(),
		gen.Float64Range(1, 625),
		gen.Float64Range(0.5, 25),
	}

	properties.Property("segment current never increases away from the source", prop.ForAll(
		func(total int, distances []float64, mask uint8, current, area float64) bool {
			segs, ok := run(total, distances, mask, current, area)
			if !ok {
				return false
			}
			for _, link := range GroupByLink(segs) {
				for i := 1; i < len(link); i++ {
					if link[i].CurrentA > link[i-1].CurrentA {
						return false
					}
				}
			}
			return true
		},
		args...,
	))

	properties.Property("cumulative drop never decreases, remaining voltage never increases", prop.ForAll(
		func(total int, distances []float64, mask uint8, current, area float64) bool {
			segs, ok := run(total, distances, mask, current, area)
			if !ok {
				return false
			}
			for _, link := range GroupByLink(segs) {
				for i := 1; i < len(link); i++ {
					if link[i].CumulativeDropMV < link[i-1].CumulativeDropMV {
						return false
					}
					if link[i].RemainingV > link[i-1].RemainingV {
						return false
					}
				}
			}
			return true
		},
		args...,
	))

	properties.Property("remaining voltage is source minus cumulative drop", prop.ForAll(
		func(total int, distances []float64, mask uint8, current, area float64) bool {
			segs, ok := run(total, distances, mask, current, area)
			if !ok {
				return false
			}
			for _, s := range segs {
				if s.RemainingV != 48-cable.MillivoltsToVolts(s.CumulativeDropMV) {
					return false
				}
			}
			return true
		},
		args...,
	))

	properties.Property("one segment per hub, source segment carries the full link load", prop.ForAll(
		func(total int, distances []float64, mask uint8, current, area float64) bool {
			topo, err := randomTopology(total, distances, mask, current)
			if err != nil {
				return false
			}
			e := &Engine{Model: cable.Default(), AreaMM2: area, SourceV: 48, ReferenceV: 48}
			segs, err := e.Propagate(topo)
			if err != nil || len(segs) != topo.HubCount() {
				return false
			}
			for _, link := range topo.Links() {
				first := FilterByLink(segs, link.ID)[0]
				if first.CurrentA != cable.MilliampsToAmps(link.CurrentMA()) && !nearlyEqual(first.CurrentA, cable.MilliampsToAmps(link.CurrentMA())) {
					return false
				}
			}
			return true
		},
		args...,
	))

	properties.Property("zero-length segments never drop voltage", prop.ForAll(
		func(total int, mask uint8, current float64) bool {
			segs, ok := run(total, []float64{0}, mask, current, 4)
			if !ok {
				return false
			}
			for _, s := range segs {
				if s.IsSource() {
					continue // source cable keeps its default length
				}
				if s.ResistanceOhm != 0 || s.DropMV != 0 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 96),
		gen.UInt8(),
		gen.Float64Range(1, 625),
	))

	properties.TestingRun(t)
}

func nearlyEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= 1e-9
}
