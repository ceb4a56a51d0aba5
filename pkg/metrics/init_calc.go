package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initCalculationMetrics() {
	r.CalculationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "apwr_calculations_total",
			Help: "Total number of voltage-drop calculations",
		},
		[]string{"result"}, // ok, violation, invalid, error
	)

	r.CalculationDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apwr_calculation_duration_seconds",
			Help:    "Duration of a complete calculation in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	r.CalculationHubs = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apwr_calculation_hubs",
			Help:    "Number of hubs per calculation",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 1000},
		},
	)

	r.ViolationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "apwr_violations_total",
			Help: "Constraint violations found, by type",
		},
		[]string{"type"}, // UnderVoltage, OverCurrent
	)

	r.LastLowestVoltage = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "apwr_last_lowest_voltage_volts",
			Help: "Lowest remaining voltage of the most recent calculation",
		},
	)

	r.LastMaxDropPercent = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "apwr_last_max_drop_percent",
			Help: "Largest cumulative drop of the most recent calculation, in percent of the reference voltage",
		},
	)

	r.LastTotalCurrentAmps = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "apwr_last_total_current_amps",
			Help: "Total system current of the most recent calculation",
		},
	)

	r.LastLinksInViolation = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "apwr_last_links_in_violation",
			Help: "Links in violation in the most recent calculation",
		},
	)
}
