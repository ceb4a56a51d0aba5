package propagation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/apwr-dropcalc/pkg/cable"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
)

func newEngine() *Engine {
	return &Engine{
		Model:      cable.OneWay{Resistivity: cable.CopperResistivity},
		AreaMM2:    4,
		SourceV:    48,
		ReferenceV: 48,
	}
}

func build(t *testing.T, spec topology.Spec) *topology.Topology {
	t.Helper()
	topo, err := topology.Build(spec)
	require.NoError(t, err)
	return topo
}

func TestPropagate_SingleHubWorkedExample(t *testing.T) {
	topo := build(t, topology.DefaultSpec(8))

	segs, err := newEngine().Propagate(topo)
	require.NoError(t, err)
	require.Len(t, segs, 1)

	s := segs[0]
	assert.True(t, s.IsSource())
	assert.Equal(t, "APWRLINK 1", s.From)
	assert.Equal(t, "APWRHUB 1", s.To)
	assert.Equal(t, 10.0, s.LengthM)
	assert.InDelta(t, 0.04375, s.ResistanceOhm, 1e-12)
	assert.InDelta(t, 5.0, s.CurrentA, 1e-12)
	assert.InDelta(t, 218.75, s.DropMV, 1e-9)
	assert.InDelta(t, 218.75, s.CumulativeDropMV, 1e-9)
	assert.InDelta(t, 47.78125, s.RemainingV, 1e-9)
	assert.InDelta(t, 218.75/48000*100, s.DropPercent, 1e-9)
}

func TestPropagate_CurrentDecreasesAlongChain(t *testing.T) {
	spec := topology.DefaultSpec(24)
	topo := build(t, spec)

	segs, err := newEngine().Propagate(topo)
	require.NoError(t, err)
	require.Len(t, segs, 3)

	assert.InDelta(t, 15.0, segs[0].CurrentA, 1e-12)
	assert.InDelta(t, 10.0, segs[1].CurrentA, 1e-12)
	assert.InDelta(t, 5.0, segs[2].CurrentA, 1e-12)

	assert.Equal(t, "APWRHUB 1", segs[1].From)
	assert.Equal(t, "APWRHUB 2", segs[1].To)

	// R = 0.04375 per 10 m segment
	assert.InDelta(t, 656.25, segs[0].DropMV, 1e-9)
	assert.InDelta(t, 437.5, segs[1].DropMV, 1e-9)
	assert.InDelta(t, 218.75, segs[2].DropMV, 1e-9)
	assert.InDelta(t, 1312.5, segs[2].CumulativeDropMV, 1e-9)
	assert.InDelta(t, 48-1.3125, segs[2].RemainingV, 1e-9)
}

func TestPropagate_TwoLinks(t *testing.T) {
	// Link 1 = hubs 1-2, link 2 starts at hub 3.
	spec := topology.DefaultSpec(32)
	spec.LinkStarts = []int{0, 2}
	spec.Hubs = map[int]topology.HubConfig{
		1: {AnodeCurrentsMA: []float64{100, 100, 100, 100, 100, 100, 100, 100}},
	}
	topo := build(t, spec)

	segs, err := newEngine().Propagate(topo)
	require.NoError(t, err)
	require.Len(t, segs, 4)

	link1 := FilterByLink(segs, 1)
	link2 := FilterByLink(segs, 2)
	require.Len(t, link1, 2)
	require.Len(t, link2, 2)

	assert.Equal(t, "APWRHUB 1", link1[0].To)
	assert.Equal(t, "APWRHUB 2", link1[1].To)
	assert.InDelta(t, 5.8, link1[0].CurrentA, 1e-12, "segment 0 carries both hubs")
	assert.InDelta(t, 0.8, link1[1].CurrentA, 1e-12, "last segment carries only hub 2")

	assert.Equal(t, "APWRLINK 2", link2[0].From)
	assert.Equal(t, "APWRHUB 3", link2[0].To)
	assert.InDelta(t, 10.0, link2[0].CurrentA, 1e-12)
	assert.InDelta(t, link2[0].DropMV, link2[0].CumulativeDropMV, 1e-12, "each link restarts accumulation")

	assert.Equal(t, []int{1, 2}, LinkIDs(segs))
	assert.Len(t, GroupByLink(segs)[2], 2)
}

func TestPropagate_ZeroLengthSegment(t *testing.T) {
	zero := 0.0
	spec := topology.DefaultSpec(16)
	spec.Hubs = map[int]topology.HubConfig{1: {DistanceM: &zero}}
	spec.SourceLengthsM = map[int]float64{1: 0}
	topo := build(t, spec)

	segs, err := newEngine().Propagate(topo)
	require.NoError(t, err)
	for _, s := range segs {
		assert.Equal(t, 0.0, s.ResistanceOhm)
		assert.Equal(t, 0.0, s.DropMV)
		assert.Equal(t, 0.0, s.CumulativeDropMV)
		assert.Equal(t, 48.0, s.RemainingV)
		assert.Equal(t, 0.0, s.DropPercent)
	}
}

func TestPropagate_FirstHubDistanceIgnored(t *testing.T) {
	far := 500.0
	spec := topology.DefaultSpec(8)
	spec.Hubs = map[int]topology.HubConfig{0: {DistanceM: &far}}
	spec.SourceLengthsM = map[int]float64{1: 20}
	topo := build(t, spec)

	segs, err := newEngine().Propagate(topo)
	require.NoError(t, err)
	assert.Equal(t, 20.0, segs[0].LengthM)
}

func TestPropagate_RoundTripModel(t *testing.T) {
	e := newEngine()
	e.Model = cable.RoundTrip{Conductivity: cable.CopperConductivity}
	spec := topology.DefaultSpec(8)
	spec.SourceLengthsM = map[int]float64{1: 28}

	segs, err := e.Propagate(build(t, spec))
	require.NoError(t, err)
	// R = 2·28/(56·4) = 0.25 Ω, I = 5 A
	assert.InDelta(t, 0.25, segs[0].ResistanceOhm, 1e-12)
	assert.InDelta(t, 1250.0, segs[0].DropMV, 1e-9)
}

func TestPropagate_ReferenceVoltageNormalisation(t *testing.T) {
	e := newEngine()
	e.ReferenceV = 24

	segs, err := e.Propagate(build(t, topology.DefaultSpec(8)))
	require.NoError(t, err)
	assert.InDelta(t, 218.75/24000*100, segs[0].DropPercent, 1e-12)
}

func TestPropagate_RejectsBadEngine(t *testing.T) {
	topo := build(t, topology.DefaultSpec(8))

	e := newEngine()
	e.AreaMM2 = 0
	_, err := e.Propagate(topo)
	assert.True(t, errors.Is(err, cable.ErrNonPositiveArea))

	e = newEngine()
	e.Model = nil
	_, err = e.Propagate(topo)
	assert.Error(t, err)

	e = newEngine()
	e.ReferenceV = 0
	_, err = e.Propagate(topo)
	assert.Error(t, err)
}

func TestPropagateLink_EmptyLink(t *testing.T) {
	_, err := newEngine().PropagateLink(topology.Link{ID: 1, Name: "APWRLINK 1"})
	assert.Error(t, err)
}

func TestPropagate_DeterministicAcrossWorkerCounts(t *testing.T) {
	spec := topology.DefaultSpec(200)
	spec.LinkStarts = []int{0, 3, 5, 9, 12, 20, 21, 24}
	topo := build(t, spec)

	e := newEngine()
	e.Workers = 1
	serial, err := e.Propagate(topo)
	require.NoError(t, err)

	for _, workers := range []int{0, 2, 8} {
		e.Workers = workers
		got, err := e.Propagate(topo)
		require.NoError(t, err)
		assert.Equal(t, serial, got, "workers=%d", workers)
	}
}
