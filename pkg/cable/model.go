package cable

import (
	"errors"
	"fmt"
	"math"
)

const (
	// CopperResistivity is ρ for copper in Ω·mm²/m.
	CopperResistivity = 0.0175
	// CopperConductivity is κ for copper in S·m/mm².
	CopperConductivity = 56.0

	ModelOneWay    = "one-way"
	ModelRoundTrip = "round-trip"
)

var (
	ErrNonPositiveArea = errors.New("cable cross-section must be positive")
	ErrNegativeLength  = errors.New("cable length must not be negative")
	ErrBadConstant     = errors.New("material constant must be positive")
	ErrUnknownModel    = errors.New("unknown resistance model")
)

// Model turns a cable run into a resistance.
type Model interface {
	// Resistance returns the run resistance in ohms.
	Resistance(lengthM, areaMM2 float64) (float64, error)
	// Name is the config identifier of the model.
	Name() string
	// Constant is ρ or κ depending on the model.
	Constant() float64
}

// OneWay uses R = ρ·L/A.
type OneWay struct {
	Resistivity float64
}

// RoundTrip uses R = 2·L/(κ·A): feed and return conductor of the same length.
type RoundTrip struct {
	Conductivity float64
}

func (m OneWay) Name() string      { return ModelOneWay }
func (m OneWay) Constant() float64 { return m.Resistivity }

func (m OneWay) Resistance(lengthM, areaMM2 float64) (float64, error) {
	if err := checkRun(lengthM, areaMM2); err != nil {
		return 0, err
	}
	if m.Resistivity <= 0 {
		return 0, fmt.Errorf("%w: resistivity %g", ErrBadConstant, m.Resistivity)
	}
	if lengthM == 0 {
		return 0, nil
	}
	return m.Resistivity * lengthM / areaMM2, nil
}

func (m RoundTrip) Name() string      { return ModelRoundTrip }
func (m RoundTrip) Constant() float64 { return m.Conductivity }

func (m RoundTrip) Resistance(lengthM, areaMM2 float64) (float64, error) {
	if err := checkRun(lengthM, areaMM2); err != nil {
		return 0, err
	}
	if m.Conductivity <= 0 {
		return 0, fmt.Errorf("%w: conductivity %g", ErrBadConstant, m.Conductivity)
	}
	if lengthM == 0 {
		return 0, nil
	}
	return 2 * lengthM / (m.Conductivity * areaMM2), nil
}

func checkRun(lengthM, areaMM2 float64) error {
	if math.IsNaN(areaMM2) || areaMM2 <= 0 {
		return fmt.Errorf("%w: %g mm²", ErrNonPositiveArea, areaMM2)
	}
	if math.IsNaN(lengthM) || lengthM < 0 {
		return fmt.Errorf("%w: %g m", ErrNegativeLength, lengthM)
	}
	return nil
}

// Default is one-way copper.
func Default() Model {
	return OneWay{Resistivity: CopperResistivity}
}

// ModelByName builds a model from its config name. A zero constant selects
// the copper value for that model.
func ModelByName(name string, constant float64) (Model, error) {
	switch name {
	case ModelOneWay, "":
		if constant == 0 {
			constant = CopperResistivity
		}
		if constant < 0 {
			return nil, fmt.Errorf("%w: %g", ErrBadConstant, constant)
		}
		return OneWay{Resistivity: constant}, nil
	case ModelRoundTrip:
		if constant == 0 {
			constant = CopperConductivity
		}
		if constant < 0 {
			return nil, fmt.Errorf("%w: %g", ErrBadConstant, constant)
		}
		return RoundTrip{Conductivity: constant}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
}

// Models lists the accepted config names.
func Models() []string {
	return []string{ModelOneWay, ModelRoundTrip}
}
