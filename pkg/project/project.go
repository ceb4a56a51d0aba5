// Package project reads and writes APWR project files. A project file is the
// YAML form of one installation: project information, system parameters and
// the hub layout. Hub numbers in the file are 1-based, as printed on site
// drawings; they are converted to the 0-based indices used by topology.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/apwr-dropcalc/pkg/config"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
	"github.com/dd0wney/apwr-dropcalc/pkg/validation"
)

// DateLayout is the format of Info.Date.
const DateLayout = "2006-01-02"

// ErrDuplicateHub is returned when a hub is configured twice.
var ErrDuplicateHub = errors.New("hub configured more than once")

// Info identifies the installation in report headers.
type Info struct {
	Name   string `yaml:"name" json:"name"`
	Number string `yaml:"number" json:"number"`
	Date   string `yaml:"date,omitempty" json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Zone   string `yaml:"zone" json:"zone"` // protection zone
}

// NewInfo returns project information dated today.
func NewInfo(name, number, zone string) Info {
	return Info{Name: name, Number: number, Zone: zone, Date: time.Now().Format(DateLayout)}
}

// Layout is the hub arrangement in file form.
type Layout struct {
	TotalAnodes           int     `yaml:"total_anodes" validate:"gte=1"`
	AnodesPerHub          int     `yaml:"anodes_per_hub,omitempty"`
	DefaultAnodeCurrentMA float64 `yaml:"default_anode_current_ma,omitempty"`
	DefaultDistanceM      float64 `yaml:"default_distance_m,omitempty"`

	Links []LinkEntry `yaml:"links" validate:"min=1,dive"`
	Hubs  []HubEntry  `yaml:"hubs,omitempty" validate:"dive"`
}

// LinkEntry starts a link at a hub.
type LinkEntry struct {
	StartHub      int      `yaml:"start_hub" validate:"gte=1"`
	SourceLengthM *float64 `yaml:"source_length_m,omitempty"`
}

// HubEntry overrides the defaults of one hub.
type HubEntry struct {
	Hub             int       `yaml:"hub" validate:"gte=1"`
	DistanceM       *float64  `yaml:"distance_m,omitempty"`
	AnodeCurrentsMA []float64 `yaml:"anode_currents_ma,omitempty"`
}

// File is a complete project file.
type File struct {
	Project Info                `yaml:"project"`
	System  config.SystemParams `yaml:"system"`
	Layout  Layout              `yaml:"layout"`
}

// New returns a file with default parameters and a single link.
func New(info Info, totalAnodes int) *File {
	return FromSpec(info, config.Defaults(), topology.DefaultSpec(totalAnodes))
}

// Load reads a project file from disk.
func Load(path string) (*File, error) {
	return LoadWith(path, config.Defaults())
}

// LoadWith reads a project file whose omitted system parameters take the
// values in params.
func LoadWith(path string, params config.SystemParams) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}
	defer f.Close()
	return DecodeWith(f, params)
}

// Parse decodes a project file held in memory.
func Parse(data []byte) (*File, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a project file. Omitted system parameters keep their defaults;
// unknown keys are rejected so typos do not silently fall back to defaults.
func Decode(r io.Reader) (*File, error) {
	return DecodeWith(r, config.Defaults())
}

// DecodeWith is Decode with params as the base for system parameters.
func DecodeWith(r io.Reader, params config.SystemParams) (*File, error) {
	file := &File{System: params}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, validation.NewError("project").Reason("file is empty").Build()
		}
		return nil, fmt.Errorf("decode project: %w", err)
	}
	return file, nil
}

// Encode writes f as YAML.
func (f *File) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return err
	}
	return enc.Close()
}

// Save writes f to path.
func (f *File) Save(path string) error {
	var buf bytes.Buffer
	if err := f.Encode(&buf); err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Validate checks the file-level structure. Electrical and topological
// checks happen in config and topology.
func (f *File) Validate() error {
	c := validation.NewCollector("project")
	c.Struct(f.Project)

	layout := validation.NewCollector("layout")
	layout.Struct(f.Layout)

	seen := make(map[int]bool)
	for i, h := range f.Layout.Hubs {
		if seen[h.Hub] {
			layout.FailWith(fmt.Sprintf("hubs[%d].hub", i), h.Hub, ErrDuplicateHub)
		}
		seen[h.Hub] = true
	}
	return c.Merge(layout).Err()
}

// Spec converts the layout to a topology spec with 0-based hub indices.
func (f *File) Spec() (topology.Spec, error) {
	if err := f.Validate(); err != nil {
		return topology.Spec{}, err
	}

	l := f.Layout
	spec := topology.DefaultSpec(l.TotalAnodes)
	if l.AnodesPerHub != 0 {
		spec.AnodesPerHub = l.AnodesPerHub
	}
	if l.DefaultAnodeCurrentMA != 0 {
		spec.DefaultAnodeCurrentMA = l.DefaultAnodeCurrentMA
	}
	if l.DefaultDistanceM != 0 {
		spec.DefaultDistanceM = l.DefaultDistanceM
	}

	spec.LinkStarts = make([]int, 0, len(l.Links))
	for i, link := range l.Links {
		spec.LinkStarts = append(spec.LinkStarts, link.StartHub-1)
		if link.SourceLengthM != nil {
			if spec.SourceLengthsM == nil {
				spec.SourceLengthsM = make(map[int]float64)
			}
			spec.SourceLengthsM[i+1] = *link.SourceLengthM
		}
	}

	if len(l.Hubs) > 0 {
		spec.Hubs = make(map[int]topology.HubConfig, len(l.Hubs))
		for _, h := range l.Hubs {
			spec.Hubs[h.Hub-1] = topology.HubConfig{
				DistanceM:       h.DistanceM,
				AnodeCurrentsMA: h.AnodeCurrentsMA,
			}
		}
	}
	return spec, nil
}

// FromSpec is the inverse of Spec. Links must be listed in start order for
// link ids to survive the round trip, which topology guarantees.
func FromSpec(info Info, params config.SystemParams, spec topology.Spec) *File {
	l := Layout{
		TotalAnodes:           spec.TotalAnodes,
		AnodesPerHub:          spec.AnodesPerHub,
		DefaultAnodeCurrentMA: spec.DefaultAnodeCurrentMA,
		DefaultDistanceM:      spec.DefaultDistanceM,
	}

	starts := append([]int(nil), spec.LinkStarts...)
	slices.Sort(starts)
	for i, s := range starts {
		entry := LinkEntry{StartHub: s + 1}
		if v, ok := spec.SourceLengthsM[i+1]; ok {
			entry.SourceLengthM = &v
		}
		l.Links = append(l.Links, entry)
	}

	hubs := make([]int, 0, len(spec.Hubs))
	for i := range spec.Hubs {
		hubs = append(hubs, i)
	}
	slices.Sort(hubs)
	for _, i := range hubs {
		cfg := spec.Hubs[i]
		l.Hubs = append(l.Hubs, HubEntry{
			Hub:             i + 1,
			DistanceM:       cfg.DistanceM,
			AnodeCurrentsMA: cfg.AnodeCurrentsMA,
		})
	}

	return &File{Project: info, System: params, Layout: l}
}
