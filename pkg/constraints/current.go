package constraints

import (
	"fmt"
)

// MaxLinkCurrentConstraint flags links drawing more than the source can
// supply.
type MaxLinkCurrentConstraint struct {
	MaxA float64
}

func (c *MaxLinkCurrentConstraint) Name() string {
	return fmt.Sprintf("MaxLinkCurrent(%gA)", c.MaxA)
}

func (c *MaxLinkCurrentConstraint) Check(view LinkView) []Violation {
	current := view.CurrentA()
	if current <= c.MaxA {
		return nil
	}
	return []Violation{{
		Type:       OverCurrent,
		Severity:   Error,
		LinkID:     view.LinkID,
		Link:       view.Link,
		Constraint: c.Name(),
		Message: fmt.Sprintf("%s: current %.2f A exceeds maximum %g A",
			view.Link, current, c.MaxA),
		Details: map[string]any{
			"current_a": current,
			"max_a":     c.MaxA,
		},
	}}
}
