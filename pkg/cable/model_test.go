package cable

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-12

func TestOneWay_Resistance(t *testing.T) {
	tests := []struct {
		name   string
		length float64
		area   float64
		want   float64
	}{
		{"10m on 4mm²", 10, 4, 0.04375},
		{"100m on 2.5mm²", 100, 2.5, 0.7},
		{"zero length", 0, 4, 0},
	}

	m := OneWay{Resistivity: CopperResistivity}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Resistance(tt.length, tt.area)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > eps {
				t.Errorf("Resistance(%g, %g) = %g, want %g", tt.length, tt.area, got, tt.want)
			}
		})
	}
}

func TestRoundTrip_Resistance(t *testing.T) {
	m := RoundTrip{Conductivity: CopperConductivity}
	got, err := m.Resistance(28, 4)
	if err != nil {
		t.Fatal(err)
	}
	// 2·28 / (56·4) = 0.25
	if math.Abs(got-0.25) > eps {
		t.Errorf("got %g, want 0.25", got)
	}

	zero, err := m.Resistance(0, 4)
	if err != nil || zero != 0 {
		t.Errorf("zero length = %g, %v", zero, err)
	}
}

func TestResistance_Rejects(t *testing.T) {
	models := []Model{OneWay{Resistivity: CopperResistivity}, RoundTrip{Conductivity: CopperConductivity}}
	for _, m := range models {
		t.Run(m.Name(), func(t *testing.T) {
			if _, err := m.Resistance(10, 0); !errors.Is(err, ErrNonPositiveArea) {
				t.Errorf("area 0: %v", err)
			}
			if _, err := m.Resistance(10, -2); !errors.Is(err, ErrNonPositiveArea) {
				t.Errorf("negative area: %v", err)
			}
			if _, err := m.Resistance(10, math.NaN()); !errors.Is(err, ErrNonPositiveArea) {
				t.Errorf("NaN area: %v", err)
			}
			if _, err := m.Resistance(-1, 4); !errors.Is(err, ErrNegativeLength) {
				t.Errorf("negative length: %v", err)
			}
		})
	}

	if _, err := (OneWay{}).Resistance(1, 1); !errors.Is(err, ErrBadConstant) {
		t.Errorf("zero resistivity: %v", err)
	}
	if _, err := (RoundTrip{}).Resistance(1, 1); !errors.Is(err, ErrBadConstant) {
		t.Errorf("zero conductivity: %v", err)
	}
}

func TestModelByName(t *testing.T) {
	m, err := ModelByName("", 0)
	if err != nil || m.Name() != ModelOneWay || m.Constant() != CopperResistivity {
		t.Errorf("default = %+v, %v", m, err)
	}

	m, err = ModelByName(ModelRoundTrip, 0)
	if err != nil || m.Constant() != CopperConductivity {
		t.Errorf("round-trip = %+v, %v", m, err)
	}

	m, err = ModelByName(ModelOneWay, 0.0282)
	if err != nil || m.Constant() != 0.0282 {
		t.Errorf("aluminium = %+v, %v", m, err)
	}

	if _, err := ModelByName("average", 0); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("unknown: %v", err)
	}
	if _, err := ModelByName(ModelRoundTrip, -3); !errors.Is(err, ErrBadConstant) {
		t.Errorf("negative constant: %v", err)
	}
}

func TestVoltageDrop(t *testing.T) {
	if got := VoltageDropV(5, 0.04375); math.Abs(got-0.21875) > eps {
		t.Errorf("VoltageDropV = %g", got)
	}
	if got := VoltageDropMV(5, 0.04375); math.Abs(got-218.75) > 1e-9 {
		t.Errorf("VoltageDropMV = %g", got)
	}
	if got := VoltageDropMV(0, 1e9); got != 0 {
		t.Errorf("zero current should give exact zero, got %g", got)
	}
	if got := VoltageDropMV(1e9, 0); got != 0 {
		t.Errorf("zero resistance should give exact zero, got %g", got)
	}
}

func TestConversions(t *testing.T) {
	if MilliampsToAmps(625) != 0.625 {
		t.Error("MilliampsToAmps")
	}
	if AmpsToMilliamps(5) != 5000 {
		t.Error("AmpsToMilliamps")
	}
	if MillivoltsToVolts(218.75) != 0.21875 {
		t.Error("MillivoltsToVolts")
	}
	if got := PercentOf(480, 48); math.Abs(got-1) > eps {
		t.Errorf("PercentOf = %g", got)
	}
	if PercentOf(0, 48) != 0 || PercentOf(10, 0) != 0 {
		t.Error("PercentOf zero handling")
	}
}
