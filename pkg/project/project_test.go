package project

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/apwr-dropcalc/pkg/config"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
	"github.com/dd0wney/apwr-dropcalc/pkg/validation"
)

const sample = `
project:
  name: Harbour Wall
  number: P-1042
  date: "2026-03-14"
  zone: Zone B
system:
  cable_area_mm2: 6
layout:
  total_anodes: 40
  links:
    - start_hub: 1
      source_length_m: 25
    - start_hub: 4
  hubs:
    - hub: 2
      distance_m: 15
    - hub: 5
      anode_currents_ma: [500, 500, 500, 500, 500, 500, 500, 500]
`

func TestParse_ToSpec(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "Harbour Wall", f.Project.Name)
	assert.Equal(t, "Zone B", f.Project.Zone)
	assert.Equal(t, 6.0, f.System.CableAreaMM2)
	assert.Equal(t, config.DefaultSourceVoltageV, f.System.SourceVoltageV, "omitted parameters keep defaults")

	spec, err := f.Spec()
	require.NoError(t, err)

	assert.Equal(t, []int{0, 3}, spec.LinkStarts)
	assert.Equal(t, map[int]float64{1: 25}, spec.SourceLengthsM)
	require.Contains(t, spec.Hubs, 1)
	assert.Equal(t, 15.0, *spec.Hubs[1].DistanceM)
	require.Contains(t, spec.Hubs, 4)
	assert.Len(t, spec.Hubs[4].AnodeCurrentsMA, 8)
	assert.Equal(t, topology.DefaultAnodesPerHub, spec.AnodesPerHub)

	topo, err := topology.Build(spec)
	require.NoError(t, err)
	assert.Equal(t, 5, topo.HubCount())
	assert.Equal(t, 2, topo.LinkCount())
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("layout:\n  total_anodez: 3\n"))
	require.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, validation.ErrInvalidInput))
}

func TestValidate_CollectsAll(t *testing.T) {
	f := &File{
		Project: Info{Date: "14/03/2026"},
		System:  config.Defaults(),
		Layout: Layout{
			TotalAnodes: 0,
			Links:       []LinkEntry{{StartHub: 0}},
			Hubs:        []HubEntry{{Hub: 2}, {Hub: 2}},
		},
	}

	_, err := f.Spec()
	verrs, ok := validation.AsValidationErrors(err)
	require.True(t, ok, "expected ValidationErrors, got %v", err)
	assert.ElementsMatch(t, []string{
		"project.date",
		"layout.total_anodes",
		"layout.links[0].start_hub",
		"layout.hubs[1].hub",
	}, verrs.Fields())
	assert.True(t, errors.Is(err, ErrDuplicateHub))
}

func TestValidate_RequiresALink(t *testing.T) {
	f := New(Info{Name: "x"}, 8)
	f.Layout.Links = nil

	verrs, ok := validation.AsValidationErrors(f.Validate())
	require.True(t, ok)
	assert.Equal(t, []string{"layout.links"}, verrs.Fields())
}

func TestFromSpec_RoundTrip(t *testing.T) {
	d := 12.5
	spec := topology.DefaultSpec(30)
	spec.LinkStarts = []int{2, 0}
	spec.SourceLengthsM = map[int]float64{2: 40}
	spec.Hubs = map[int]topology.HubConfig{3: {DistanceM: &d}}

	f := FromSpec(NewInfo("Pier", "7", "Z1"), config.Defaults(), spec)
	assert.Equal(t, 1, f.Layout.Links[0].StartHub)
	assert.Equal(t, 3, f.Layout.Links[1].StartHub)

	var buf bytes.Buffer
	require.NoError(t, f.Encode(&buf))

	back, err := Parse(buf.Bytes())
	require.NoError(t, err)
	got, err := back.Spec()
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, got.LinkStarts)
	assert.Equal(t, spec.SourceLengthsM, got.SourceLengthsM)
	assert.Equal(t, d, *got.Hubs[3].DistanceM)
	assert.Equal(t, f.Project, back.Project)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	f := New(Info{Name: "Jetty", Number: "J-1", Date: "2026-01-02", Zone: "North"}, 16)
	require.NoError(t, f.Save(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, f.Project, back.Project)
	assert.Equal(t, f.System, back.System)
	assert.Equal(t, 16, back.Layout.TotalAnodes)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadWith_BaseParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	f := New(Info{Name: "Quay"}, 8)
	f.System.CableAreaMM2 = 10
	require.NoError(t, f.Save(path))

	base := config.Defaults()
	base.MinVoltageV = 40

	back, err := LoadWith(path, base)
	require.NoError(t, err)
	// Saved files carry every parameter, so the file wins.
	assert.Equal(t, 10.0, back.System.CableAreaMM2)
	assert.Equal(t, config.DefaultMinVoltageV, back.System.MinVoltageV)

	sparse, err := DecodeWith(bytes.NewBufferString("system:\n  cable_area_mm2: 6\nlayout:\n  total_anodes: 8\n  links:\n    - start_hub: 1\n"), base)
	require.NoError(t, err)
	assert.Equal(t, 6.0, sparse.System.CableAreaMM2)
	assert.Equal(t, 40.0, sparse.System.MinVoltageV, "omitted parameters take the base")
}
