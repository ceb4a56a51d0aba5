package constraints

import (
	"github.com/dd0wney/apwr-dropcalc/pkg/propagation"
)

// Severity indicates the importance of a violation
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// ViolationType categorizes the type of constraint violation
type ViolationType int

const (
	UnderVoltage ViolationType = iota
	OverCurrent
)

func (vt ViolationType) String() string {
	switch vt {
	case UnderVoltage:
		return "UnderVoltage"
	case OverCurrent:
		return "OverCurrent"
	default:
		return "Unknown"
	}
}

// MarshalText makes violation types readable in JSON and YAML output.
func (vt ViolationType) MarshalText() ([]byte, error) {
	return []byte(vt.String()), nil
}

// MarshalText makes severities readable in JSON and YAML output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is the outcome of evaluating a link or the whole system.
type Status string

const (
	StatusOK        Status = "OK"
	StatusViolation Status = "VIOLATION"
)

// Violation is a breached operating limit. It is a result, not an error.
type Violation struct {
	Type       ViolationType  `json:"type"`
	Severity   Severity       `json:"severity"`
	LinkID     int            `json:"link_id"`
	Link       string         `json:"link"`
	Node       string         `json:"node,omitempty"` // set for per-node violations
	Constraint string         `json:"constraint"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
}

// LinkView is the read-only slice of results a constraint inspects.
type LinkView struct {
	LinkID   int
	Link     string
	Segments []propagation.Segment
}

// CurrentA is the full link draw, i.e. the current of the source segment.
func (v LinkView) CurrentA() float64 {
	for _, s := range v.Segments {
		if s.IsSource() {
			return s.CurrentA
		}
	}
	return 0
}

// Constraint is implemented by every operating limit.
type Constraint interface {
	// Check returns the violations found in one link (empty if none)
	Check(view LinkView) []Violation

	// Name returns a human-readable name for the constraint
	Name() string
}
