package topology

import (
	"errors"
	"fmt"
)

const (
	// DefaultAnodesPerHub is 4 channels with 2 anode connections each.
	DefaultAnodesPerHub = 8
	// DefaultAnodeCurrentMA is the standard anode current.
	DefaultAnodeCurrentMA = 625.0
	// MaxAnodeCurrentMA is the upper bound for a manually configured anode.
	// The default current is not capped.
	MaxAnodeCurrentMA = 625.0
	// MaxHubs and MaxTotalAnodes bound the size of one topology.
	MaxHubs        = 2500
	MaxTotalAnodes = MaxHubs * DefaultAnodesPerHub
	// DefaultDistanceM is used for unset hub distances and source cables.
	DefaultDistanceM = 10.0
)

var (
	ErrFirstHubNotLinkStart = errors.New("the first hub must start a link")
	ErrLinkStartOutOfRange  = errors.New("link start does not name an existing hub")
	ErrUnknownHub           = errors.New("configuration for a hub that does not exist")
	ErrUnknownLink          = errors.New("configuration for a link that does not exist")
	ErrAnodeCountMismatch   = errors.New("manual anode currents do not match the anodes on this hub")
	ErrTooLarge             = errors.New("topology too large")
)

// HubName is the display name of the hub at 0-based index i.
func HubName(i int) string {
	return fmt.Sprintf("APWRHUB %d", i+1)
}

// LinkName is the display name of link id (1-based).
func LinkName(id int) string {
	return fmt.Sprintf("APWRLINK %d", id)
}

// HubConfig overrides the defaults for one hub.
type HubConfig struct {
	// DistanceM is the cable length from the previous unit. Nil means the
	// spec default. Ignored for the first hub of a link, which is fed over
	// the link's source cable.
	DistanceM *float64 `yaml:"distance_m,omitempty" json:"distance_m,omitempty"`
	// AnodeCurrentsMA switches the hub to manual configuration. Its length
	// must equal the number of anodes on the hub.
	AnodeCurrentsMA []float64 `yaml:"anode_currents_ma,omitempty" json:"anode_currents_ma,omitempty"`
}

// Spec is everything the builder needs. Hub indices are 0-based.
type Spec struct {
	TotalAnodes           int     `yaml:"total_anodes" json:"total_anodes" validate:"gte=1"`
	AnodesPerHub          int     `yaml:"anodes_per_hub" json:"anodes_per_hub" validate:"gte=1"`
	DefaultAnodeCurrentMA float64 `yaml:"default_anode_current_ma" json:"default_anode_current_ma" validate:"gt=0"`
	MaxAnodeCurrentMA     float64 `yaml:"max_anode_current_ma" json:"max_anode_current_ma" validate:"gt=0"`
	DefaultDistanceM      float64 `yaml:"default_distance_m" json:"default_distance_m" validate:"gte=0"`

	// LinkStarts lists the hubs where a new link begins. Must contain 0.
	LinkStarts []int `yaml:"link_starts" json:"link_starts"`
	// Hubs holds per-hub overrides keyed by hub index.
	Hubs map[int]HubConfig `yaml:"hubs,omitempty" json:"hubs,omitempty"`
	// SourceLengthsM holds the source-to-first-hub cable per link id.
	SourceLengthsM map[int]float64 `yaml:"source_lengths_m,omitempty" json:"source_lengths_m,omitempty"`
}

// DefaultSpec returns a spec with the standard hub layout for totalAnodes.
func DefaultSpec(totalAnodes int) Spec {
	return Spec{
		TotalAnodes:           totalAnodes,
		AnodesPerHub:          DefaultAnodesPerHub,
		DefaultAnodeCurrentMA: DefaultAnodeCurrentMA,
		MaxAnodeCurrentMA:     MaxAnodeCurrentMA,
		DefaultDistanceM:      DefaultDistanceM,
		LinkStarts:            []int{0},
	}
}

// Hub is a junction box with its anode loads.
type Hub struct {
	Index           int       `json:"index"`
	Name            string    `json:"name"`
	LinkID          int       `json:"link_id"`
	AnodeCurrentsMA []float64 `json:"anode_currents_ma"`
	CurrentMA       float64   `json:"current_ma"`
	DistanceM       float64   `json:"distance_m"`
	Manual          bool      `json:"manual"`
}

// Anodes is the number of anodes connected to the hub.
func (h Hub) Anodes() int {
	return len(h.AnodeCurrentsMA)
}

// Link is a power source feeding a contiguous chain of hubs.
type Link struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	SourceLengthM float64 `json:"source_length_m"`
	Hubs          []Hub   `json:"hubs"`
}

// CurrentMA is the full load drawn from the link source.
func (l Link) CurrentMA() float64 {
	var sum float64
	for _, h := range l.Hubs {
		sum += h.CurrentMA
	}
	return sum
}

// First returns the index of the first hub in the link.
func (l Link) First() int {
	return l.Hubs[0].Index
}

// Last returns the index of the last hub in the link.
func (l Link) Last() int {
	return l.Hubs[len(l.Hubs)-1].Index
}
