package propagation

import (
	"fmt"

	"github.com/dd0wney/apwr-dropcalc/pkg/cable"
	"github.com/dd0wney/apwr-dropcalc/pkg/parallel"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
)

// Engine walks link chains and produces segment records.
type Engine struct {
	Model      cable.Model
	AreaMM2    float64
	SourceV    float64
	ReferenceV float64
	// Workers bounds link-level concurrency; <= 0 means one worker per link.
	Workers int
}

// Propagate computes every link of t. Links run concurrently; the result is
// ordered by link id and by position within each link.
func (e *Engine) Propagate(t *topology.Topology) ([]Segment, error) {
	if err := e.check(); err != nil {
		return nil, err
	}

	perLink, err := parallel.Map(e.Workers, t.Links(), func(_ int, link topology.Link) ([]Segment, error) {
		return e.PropagateLink(link)
	})
	if err != nil {
		return nil, err
	}

	total := 0
	for _, segs := range perLink {
		total += len(segs)
	}
	out := make([]Segment, 0, total)
	for _, segs := range perLink {
		out = append(out, segs...)
	}
	return out, nil
}

// PropagateLink runs the recurrence for one link. Segment 0 runs from the
// source to the first hub and carries the whole link load; segment i runs
// from hub i-1 to hub i and carries the load of hub i and everything after it.
func (e *Engine) PropagateLink(link topology.Link) ([]Segment, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if len(link.Hubs) == 0 {
		return nil, fmt.Errorf("%s: link has no hubs", link.Name)
	}

	// suffix[i] = current of hubs[i:] in mA
	suffix := make([]float64, len(link.Hubs)+1)
	for i := len(link.Hubs) - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1] + link.Hubs[i].CurrentMA
	}

	segments := make([]Segment, len(link.Hubs))
	var cumulativeMV float64
	for i, hub := range link.Hubs {
		from, length := link.Name, link.SourceLengthM
		if i > 0 {
			from, length = link.Hubs[i-1].Name, hub.DistanceM
		}

		ohms, err := e.Model.Resistance(length, e.AreaMM2)
		if err != nil {
			return nil, fmt.Errorf("%s %s -> %s: %w", link.Name, from, hub.Name, err)
		}
		currentA := cable.MilliampsToAmps(suffix[i])
		dropMV := cable.VoltageDropMV(currentA, ohms)
		cumulativeMV += dropMV

		segments[i] = Segment{
			LinkID:           link.ID,
			Link:             link.Name,
			Position:         i,
			From:             from,
			To:               hub.Name,
			ToHub:            hub.Index,
			LengthM:          length,
			ResistanceOhm:    ohms,
			CurrentA:         currentA,
			DropMV:           dropMV,
			CumulativeDropMV: cumulativeMV,
			RemainingV:       e.SourceV - cable.MillivoltsToVolts(cumulativeMV),
			DropPercent:      cable.PercentOf(cumulativeMV, e.ReferenceV),
		}
	}
	return segments, nil
}

func (e *Engine) check() error {
	if e.Model == nil {
		return fmt.Errorf("propagation: no resistance model")
	}
	if e.AreaMM2 <= 0 {
		return fmt.Errorf("propagation: %w: %g mm²", cable.ErrNonPositiveArea, e.AreaMM2)
	}
	if e.ReferenceV <= 0 {
		return fmt.Errorf("propagation: reference voltage must be positive, got %g V", e.ReferenceV)
	}
	return nil
}
