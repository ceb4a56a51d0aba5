package propagation

// Segment is one cable run between two consecutive nodes of a link. Values
// are immutable; a new calculation produces new segments.
//
// Units are part of the export contract:
//
//	LengthM            m
//	ResistanceOhm      Ω
//	CurrentA           A
//	DropMV             mV  (this segment only)
//	CumulativeDropMV   mV  (source up to and including this segment)
//	RemainingV         V   (source voltage − cumulative drop)
//	DropPercent        %   (cumulative drop / reference voltage)
type Segment struct {
	LinkID           int     `json:"link_id" yaml:"link_id"`
	Link             string  `json:"link" yaml:"link"`
	Position         int     `json:"position" yaml:"position"` // 0 = source segment
	From             string  `json:"from" yaml:"from"`
	To               string  `json:"to" yaml:"to"`
	ToHub            int     `json:"to_hub" yaml:"to_hub"` // 0-based hub index of To
	LengthM          float64 `json:"distance_m" yaml:"distance_m"`
	ResistanceOhm    float64 `json:"resistance_ohm" yaml:"resistance_ohm"`
	CurrentA         float64 `json:"current_a" yaml:"current_a"`
	DropMV           float64 `json:"drop_mv" yaml:"drop_mv"`
	CumulativeDropMV float64 `json:"cumulative_drop_mv" yaml:"cumulative_drop_mv"`
	RemainingV       float64 `json:"remaining_v" yaml:"remaining_v"`
	DropPercent      float64 `json:"drop_percent" yaml:"drop_percent"`
}

// IsSource reports whether the segment starts at the link source.
func (s Segment) IsSource() bool {
	return s.Position == 0
}

// FilterByLink returns the segments of one link, in order.
func FilterByLink(segments []Segment, linkID int) []Segment {
	out := make([]Segment, 0)
	for _, s := range segments {
		if s.LinkID == linkID {
			out = append(out, s)
		}
	}
	return out
}

// GroupByLink splits segments into per-link slices keyed by link id,
// preserving order inside each link.
func GroupByLink(segments []Segment) map[int][]Segment {
	groups := make(map[int][]Segment)
	for _, s := range segments {
		groups[s.LinkID] = append(groups[s.LinkID], s)
	}
	return groups
}

// LinkIDs returns the distinct link ids in first-seen order.
func LinkIDs(segments []Segment) []int {
	seen := make(map[int]bool)
	ids := make([]int, 0)
	for _, s := range segments {
		if !seen[s.LinkID] {
			seen[s.LinkID] = true
			ids = append(ids, s.LinkID)
		}
	}
	return ids
}
