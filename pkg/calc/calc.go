// Package calc runs a complete voltage-drop calculation: validate the input,
// build the topology, propagate every link and evaluate the limits.
package calc

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/apwr-dropcalc/pkg/config"
	"github.com/dd0wney/apwr-dropcalc/pkg/constraints"
	"github.com/dd0wney/apwr-dropcalc/pkg/project"
	"github.com/dd0wney/apwr-dropcalc/pkg/propagation"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
	"github.com/dd0wney/apwr-dropcalc/pkg/validation"
)

// ErrUnknownLink is returned by Result.ForLink for an id with no segments.
var ErrUnknownLink = errors.New("unknown link")

// Input is everything a calculation needs.
type Input struct {
	Project  project.Info        `json:"project" yaml:"project"`
	Params   config.SystemParams `json:"params" yaml:"params"`
	Topology topology.Spec       `json:"topology" yaml:"topology"`
}

// DefaultInput returns an input with default parameters and a single link.
func DefaultInput(totalAnodes int) Input {
	return Input{
		Params:   config.Defaults(),
		Topology: topology.DefaultSpec(totalAnodes),
	}
}

// InputFromProject converts a project file.
func InputFromProject(f *project.File) (Input, error) {
	spec, err := f.Spec()
	if err != nil {
		return Input{}, err
	}
	return Input{Project: f.Project, Params: f.System, Topology: spec}, nil
}

// Result is an immutable snapshot of one calculation.
type Result struct {
	ID           uuid.UUID                 `json:"id"`
	CalculatedAt time.Time                 `json:"calculated_at"`
	Project      project.Info              `json:"project"`
	Params       config.SystemParams       `json:"params"`
	Hubs         []topology.Hub            `json:"hubs"`
	Segments     []propagation.Segment     `json:"segments"`
	Status       *constraints.SystemStatus `json:"status"`

	topology *topology.Topology
}

// Topology returns the topology the result was computed from. It is nil for
// results decoded from JSON.
func (r *Result) Topology() *topology.Topology {
	return r.topology
}

// OK reports whether every link is within limits.
func (r *Result) OK() bool {
	return r.Status != nil && r.Status.OK()
}

// LinkIDs returns the ids of all links in order.
func (r *Result) LinkIDs() []int {
	return propagation.LinkIDs(r.Segments)
}

// ForLink returns the same result restricted to one link: its hubs, its
// segments and a status evaluated over those segments only.
func (r *Result) ForLink(id int) (*Result, error) {
	segs := propagation.FilterByLink(r.Segments, id)
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLink, id)
	}

	hubs := make([]topology.Hub, 0)
	for _, h := range r.Hubs {
		if h.LinkID == id {
			hubs = append(hubs, h)
		}
	}

	out := *r
	out.Hubs = hubs
	out.Segments = segs
	out.Status = constraints.NewEvaluator(LimitsFor(r.Params)).Evaluate(segs)
	return &out, nil
}

// LimitsFor maps system parameters to evaluator limits.
func LimitsFor(p config.SystemParams) constraints.Limits {
	return constraints.Limits{
		SourceV:         p.SourceVoltageV,
		ReferenceV:      p.ReferenceVoltageV,
		MinVoltageV:     p.MinVoltageV,
		MaxLinkCurrentA: p.MaxLinkCurrentA,
	}
}

// Validate reports every problem with in without computing anything.
func Validate(in Input) error {
	_, err := prepare(in)
	return err
}

// prepare validates all of in at once and builds the topology.
func prepare(in Input) (*topology.Topology, error) {
	c := validation.NewCollector("")
	c.Merge(validation.NewCollector("project").Struct(in.Project))
	c.Merge(in.Params.Collect("params"))

	topo, err := topology.Build(in.Topology)
	if err != nil {
		verrs, ok := validation.AsValidationErrors(err)
		if !ok {
			return nil, err
		}
		for _, e := range verrs {
			c.Add(e)
		}
	}

	if err := c.Err(); err != nil {
		return nil, err
	}
	return topo, nil
}

// Calculate runs a calculation with default settings and no logging.
func Calculate(in Input) (*Result, error) {
	return NewCalculator().Calculate(in)
}

func compute(in Input, workers int) (*Result, error) {
	topo, err := prepare(in)
	if err != nil {
		return nil, err
	}

	model, err := in.Params.Model()
	if err != nil {
		return nil, err
	}

	engine := &propagation.Engine{
		Model:      model,
		AreaMM2:    in.Params.CableAreaMM2,
		SourceV:    in.Params.SourceVoltageV,
		ReferenceV: in.Params.ReferenceVoltageV,
		Workers:    workers,
	}
	segments, err := engine.Propagate(topo)
	if err != nil {
		return nil, err
	}

	return &Result{
		ID:           uuid.New(),
		CalculatedAt: time.Now().UTC(),
		Project:      in.Project,
		Params:       in.Params,
		Hubs:         topo.Hubs(),
		Segments:     segments,
		Status:       constraints.NewEvaluator(LimitsFor(in.Params)).Evaluate(segments),
		topology:     topo,
	}, nil
}
