package cable

// VoltageDropV returns U = I·R in volts. Zero current or zero resistance
// yields exactly zero.
func VoltageDropV(currentA, ohms float64) float64 {
	if currentA == 0 || ohms == 0 {
		return 0
	}
	return currentA * ohms
}

// VoltageDropMV returns U = I·R in millivolts.
func VoltageDropMV(currentA, ohms float64) float64 {
	return VoltsToMillivolts(VoltageDropV(currentA, ohms))
}

func MilliampsToAmps(mA float64) float64 { return mA / 1000 }

func AmpsToMilliamps(a float64) float64 { return a * 1000 }

func VoltsToMillivolts(v float64) float64 { return v * 1000 }

func MillivoltsToVolts(mV float64) float64 { return mV / 1000 }

// PercentOf returns dropMV as a percentage of referenceV. The reference is
// converted to millivolts before dividing.
func PercentOf(dropMV, referenceV float64) float64 {
	if dropMV == 0 || referenceV == 0 {
		return 0
	}
	return dropMV / VoltsToMillivolts(referenceV) * 100
}
