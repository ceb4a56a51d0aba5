package constraints

import (
	"fmt"
)

// MinVoltageConstraint flags every node whose remaining voltage is below the
// minimum working voltage of a hub.
type MinVoltageConstraint struct {
	FloorV float64
}

func (c *MinVoltageConstraint) Name() string {
	return fmt.Sprintf("MinVoltage(%gV)", c.FloorV)
}

func (c *MinVoltageConstraint) Check(view LinkView) []Violation {
	violations := make([]Violation, 0)
	for _, s := range view.Segments {
		if s.RemainingV >= c.FloorV {
			continue
		}
		violations = append(violations, Violation{
			Type:       UnderVoltage,
			Severity:   Error,
			LinkID:     view.LinkID,
			Link:       view.Link,
			Node:       s.To,
			Constraint: c.Name(),
			Message: fmt.Sprintf("%s: voltage at %s is %.2f V, below minimum %g V",
				view.Link, s.To, s.RemainingV, c.FloorV),
			Details: map[string]any{
				"remaining_v": s.RemainingV,
				"floor_v":     c.FloorV,
			},
		})
	}
	return violations
}
