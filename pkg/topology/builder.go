package topology

import (
	"fmt"
	"sort"

	"github.com/dd0wney/apwr-dropcalc/pkg/validation"
)

// Topology is the validated partition of hubs into links. It is immutable
// once built; any input change means building a new one.
type Topology struct {
	hubs   []Hub
	links  []Link
	linkOf []int // hub index -> link id
	spec   Spec
}

// HubCount returns ceil(totalAnodes / perHub).
func HubCount(totalAnodes, perHub int) int {
	if totalAnodes <= 0 || perHub <= 0 {
		return 0
	}
	return (totalAnodes + perHub - 1) / perHub
}

// AnodesOnHub returns how many anodes hub i carries. Every hub is full
// except possibly the last, which takes the remainder.
func AnodesOnHub(i, totalAnodes, perHub int) int {
	n := HubCount(totalAnodes, perHub)
	if i < 0 || i >= n {
		return 0
	}
	if i < n-1 {
		return perHub
	}
	return min(perHub, totalAnodes-perHub*(n-1))
}

// Build validates spec and derives the hub/link partition. On any validation
// problem it returns validation.ValidationErrors and no topology.
func Build(spec Spec) (*Topology, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	hubCount := HubCount(spec.TotalAnodes, spec.AnodesPerHub)
	starts := make(map[int]bool, len(spec.LinkStarts))
	for _, s := range spec.LinkStarts {
		starts[s] = true
	}

	hubs := make([]Hub, hubCount)
	linkOf := make([]int, hubCount)
	currentLink := 1
	for i := range hubs {
		if starts[i] && i != 0 {
			currentLink++
		}
		linkOf[i] = currentLink
		hubs[i] = buildHub(spec, i, currentLink)
	}

	links := make([]Link, 0, currentLink)
	for i, h := range hubs {
		if len(links) == 0 || links[len(links)-1].ID != linkOf[i] {
			id := linkOf[i]
			length, ok := spec.SourceLengthsM[id]
			if !ok {
				length = spec.DefaultDistanceM
			}
			links = append(links, Link{ID: id, Name: LinkName(id), SourceLengthM: length})
		}
		last := &links[len(links)-1]
		last.Hubs = append(last.Hubs, h)
	}

	return &Topology{hubs: hubs, links: links, linkOf: linkOf, spec: spec}, nil
}

func buildHub(spec Spec, i, linkID int) Hub {
	anodes := AnodesOnHub(i, spec.TotalAnodes, spec.AnodesPerHub)
	cfg := spec.Hubs[i]

	h := Hub{
		Index:     i,
		Name:      HubName(i),
		LinkID:    linkID,
		DistanceM: spec.DefaultDistanceM,
	}
	if cfg.DistanceM != nil {
		h.DistanceM = *cfg.DistanceM
	}

	if cfg.AnodeCurrentsMA != nil {
		h.Manual = true
		h.AnodeCurrentsMA = append([]float64(nil), cfg.AnodeCurrentsMA...)
	} else {
		h.AnodeCurrentsMA = make([]float64, anodes)
		for a := range h.AnodeCurrentsMA {
			h.AnodeCurrentsMA[a] = spec.DefaultAnodeCurrentMA
		}
	}
	for _, c := range h.AnodeCurrentsMA {
		h.CurrentMA += c
	}
	return h
}

func validateSpec(spec Spec) error {
	c := validation.NewCollector("topology").Struct(&spec)
	if spec.TotalAnodes > MaxTotalAnodes {
		c.Add(validation.NewError("topology.total_anodes").
			Value(spec.TotalAnodes).
			Cause(ErrTooLarge).
			Reason("%s: at most %d anodes", ErrTooLarge, MaxTotalAnodes).
			Build())
	} else if n := HubCount(spec.TotalAnodes, spec.AnodesPerHub); n > MaxHubs {
		c.Add(validation.NewError("topology.anodes_per_hub").
			Value(spec.AnodesPerHub).
			Cause(ErrTooLarge).
			Reason("%s: %d anodes need %d hubs, at most %d", ErrTooLarge, spec.TotalAnodes, n, MaxHubs).
			Build())
	}
	if c.HasErrors() {
		// Counts are unusable; the remaining checks would only add noise.
		return c.Err()
	}

	hubCount := HubCount(spec.TotalAnodes, spec.AnodesPerHub)

	hasFirst := false
	for i, s := range spec.LinkStarts {
		if s == 0 {
			hasFirst = true
		}
		if s < 0 || s >= hubCount {
			c.FailWith(fmt.Sprintf("link_starts[%d]", i), s, ErrLinkStartOutOfRange)
		}
	}
	if !hasFirst {
		c.FailWith("link_starts", spec.LinkStarts, ErrFirstHubNotLinkStart)
	}

	for _, i := range sortedKeys(spec.Hubs) {
		cfg := spec.Hubs[i]
		field := fmt.Sprintf("hubs[%d]", i)
		if i < 0 || i >= hubCount {
			c.FailWith(field, i, ErrUnknownHub)
			continue
		}
		if cfg.DistanceM != nil {
			c.NonNegativeFloat(field+".distance_m", *cfg.DistanceM)
		}
		if cfg.AnodeCurrentsMA != nil {
			if want := AnodesOnHub(i, spec.TotalAnodes, spec.AnodesPerHub); len(cfg.AnodeCurrentsMA) != want {
				c.Add(validation.NewError("topology."+field+".anode_currents_ma").
					Value(len(cfg.AnodeCurrentsMA)).
					Cause(ErrAnodeCountMismatch).
					Reason("%s: hub has %d anodes", ErrAnodeCountMismatch, want).
					Build())
			}
			for a, cur := range cfg.AnodeCurrentsMA {
				c.RangeFloat(fmt.Sprintf("%s.anode_currents_ma[%d]", field, a), cur, 0, spec.MaxAnodeCurrentMA)
			}
		}
	}

	linkCount := countLinks(spec.LinkStarts, hubCount)
	for _, id := range sortedKeys(spec.SourceLengthsM) {
		field := fmt.Sprintf("source_lengths_m[%d]", id)
		if id < 1 || id > linkCount {
			c.FailWith(field, id, ErrUnknownLink)
			continue
		}
		c.NonNegativeFloat(field, spec.SourceLengthsM[id])
	}

	return c.Err()
}

// countLinks counts distinct in-range starts, treating 0 as always present.
func countLinks(starts []int, hubCount int) int {
	seen := map[int]bool{0: true}
	for _, s := range starts {
		if s >= 0 && s < hubCount {
			seen[s] = true
		}
	}
	return len(seen)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
