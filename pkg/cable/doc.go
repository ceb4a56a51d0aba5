// Package cable converts cable geometry into resistance and resistance into
// voltage drop.
//
// Two conventions exist for copper run resistance and a deployment picks
// exactly one of them:
//
//	one-way    R = ρ·L / A        ρ in Ω·mm²/m (copper 0.0175)
//	round-trip R = 2·L / (κ·A)    κ in S·m/mm² (copper 56)
//
// Lengths are meters, areas square millimetres, currents amperes. Drops are
// returned in millivolts because callers accumulate in millivolts.
package cable
