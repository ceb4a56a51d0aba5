package constraints

import (
	"math"

	"github.com/dd0wney/apwr-dropcalc/pkg/cable"
	"github.com/dd0wney/apwr-dropcalc/pkg/propagation"
)

// Limits are the operating limits a system is checked against.
type Limits struct {
	SourceV         float64
	ReferenceV      float64
	MinVoltageV     float64
	MaxLinkCurrentA float64
}

// AllowedDropPercent is the drop, relative to the reference voltage, that
// still leaves the minimum working voltage at a hub.
func (l Limits) AllowedDropPercent() float64 {
	if l.ReferenceV <= 0 {
		return 0
	}
	return (l.SourceV - l.MinVoltageV) / l.ReferenceV * 100
}

// LinkStatus summarises one link.
type LinkStatus struct {
	LinkID              int         `json:"link_id"`
	LinkName            string      `json:"link"`
	Status              Status      `json:"status"`
	CurrentA            float64     `json:"current_a"`
	MinRemainingV       float64     `json:"min_remaining_v"`
	MaxCumulativeDropMV float64     `json:"max_cumulative_drop_mv"`
	MaxDropPercent      float64     `json:"max_drop_percent"`
	AllowedDropPercent  float64     `json:"allowed_drop_percent"`
	UnderVoltage        bool        `json:"under_voltage"`
	OverCurrent         bool        `json:"over_current"`
	ViolatingNodes      []string    `json:"violating_nodes"`
	Violations          []Violation `json:"violations"`
}

// OK reports whether the link is within limits.
func (l LinkStatus) OK() bool {
	return l.Status == StatusOK
}

// SystemStatus aggregates every link.
type SystemStatus struct {
	Status            Status       `json:"status"`
	Links             []LinkStatus `json:"links"`
	TotalCurrentA     float64      `json:"total_current_a"`
	LowestVoltageV    float64      `json:"lowest_voltage_v"`
	MaxDropMV         float64      `json:"max_drop_mv"`
	MaxDropPercent    float64      `json:"max_drop_percent"`
	OverloadedLinks   []string     `json:"overloaded_links"`
	UnderVoltageNodes []string     `json:"under_voltage_nodes"`
}

// OK reports whether every link is within limits.
func (s *SystemStatus) OK() bool {
	return s.Status == StatusOK
}

// Link returns the status of link id.
func (s *SystemStatus) Link(id int) (LinkStatus, bool) {
	for _, l := range s.Links {
		if l.LinkID == id {
			return l, true
		}
	}
	return LinkStatus{}, false
}

// Violations returns every violation across all links.
func (s *SystemStatus) Violations() []Violation {
	all := make([]Violation, 0)
	for _, l := range s.Links {
		all = append(all, l.Violations...)
	}
	return all
}

// ViolationsByType returns violations filtered by type
func (s *SystemStatus) ViolationsByType(vt ViolationType) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range s.Violations() {
		if v.Type == vt {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Evaluator checks segment records against a set of constraints.
type Evaluator struct {
	limits      Limits
	constraints []Constraint
}

// NewEvaluator returns an evaluator with the minimum-voltage and
// maximum-link-current constraints for limits.
func NewEvaluator(limits Limits) *Evaluator {
	e := &Evaluator{limits: limits}
	e.AddConstraint(&MinVoltageConstraint{FloorV: limits.MinVoltageV})
	e.AddConstraint(&MaxLinkCurrentConstraint{MaxA: limits.MaxLinkCurrentA})
	return e
}

// AddConstraint adds a constraint to the evaluator
func (e *Evaluator) AddConstraint(c Constraint) {
	e.constraints = append(e.constraints, c)
}

// Constraints returns all registered constraints
func (e *Evaluator) Constraints() []Constraint {
	return e.constraints
}

// Evaluate derives link and system status from segments. It never caches:
// the same segments always give the same status.
func (e *Evaluator) Evaluate(segments []propagation.Segment) *SystemStatus {
	groups := propagation.GroupByLink(segments)

	sys := &SystemStatus{
		Status:            StatusOK,
		Links:             make([]LinkStatus, 0, len(groups)),
		LowestVoltageV:    math.Inf(1),
		OverloadedLinks:   make([]string, 0),
		UnderVoltageNodes: make([]string, 0),
	}

	for _, id := range propagation.LinkIDs(segments) {
		segs := groups[id]
		ls := e.evaluateLink(LinkView{LinkID: id, Link: segs[0].Link, Segments: segs})

		sys.TotalCurrentA += ls.CurrentA
		sys.LowestVoltageV = math.Min(sys.LowestVoltageV, ls.MinRemainingV)
		sys.MaxDropMV = math.Max(sys.MaxDropMV, ls.MaxCumulativeDropMV)
		sys.MaxDropPercent = math.Max(sys.MaxDropPercent, ls.MaxDropPercent)
		if ls.OverCurrent {
			sys.OverloadedLinks = append(sys.OverloadedLinks, ls.LinkName)
		}
		sys.UnderVoltageNodes = append(sys.UnderVoltageNodes, ls.ViolatingNodes...)
		if !ls.OK() {
			sys.Status = StatusViolation
		}
		sys.Links = append(sys.Links, ls)
	}

	if len(sys.Links) == 0 {
		sys.LowestVoltageV = e.limits.SourceV
	}
	return sys
}

func (e *Evaluator) evaluateLink(view LinkView) LinkStatus {
	ls := LinkStatus{
		LinkID:             view.LinkID,
		LinkName:           view.Link,
		Status:             StatusOK,
		CurrentA:           view.CurrentA(),
		MinRemainingV:      math.Inf(1),
		AllowedDropPercent: e.limits.AllowedDropPercent(),
		ViolatingNodes:     make([]string, 0),
		Violations:         make([]Violation, 0),
	}

	for _, s := range view.Segments {
		ls.MinRemainingV = math.Min(ls.MinRemainingV, s.RemainingV)
		ls.MaxCumulativeDropMV = math.Max(ls.MaxCumulativeDropMV, s.CumulativeDropMV)
		ls.MaxDropPercent = math.Max(ls.MaxDropPercent, s.DropPercent)
	}

	for _, c := range e.constraints {
		for _, v := range c.Check(view) {
			switch v.Type {
			case UnderVoltage:
				ls.UnderVoltage = true
				if v.Node != "" {
					ls.ViolatingNodes = append(ls.ViolatingNodes, v.Node)
				}
			case OverCurrent:
				ls.OverCurrent = true
			}
			ls.Violations = append(ls.Violations, v)
		}
	}

	if len(ls.Violations) > 0 {
		ls.Status = StatusViolation
	}
	return ls
}

// TotalCurrentMA is a convenience for callers working in milliamps.
func (s *SystemStatus) TotalCurrentMA() float64 {
	return cable.AmpsToMilliamps(s.TotalCurrentA)
}
