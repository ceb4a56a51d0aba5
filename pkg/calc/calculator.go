package calc

import (
	"errors"
	"time"

	"github.com/dd0wney/apwr-dropcalc/pkg/constraints"
	"github.com/dd0wney/apwr-dropcalc/pkg/logging"
	"github.com/dd0wney/apwr-dropcalc/pkg/metrics"
	"github.com/dd0wney/apwr-dropcalc/pkg/validation"
)

// Calculator runs calculations with logging and metrics.
type Calculator struct {
	workers int
	logger  logging.Logger
	metrics *metrics.Registry
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithWorkers bounds link-level concurrency.
func WithWorkers(n int) Option {
	return func(c *Calculator) { c.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Calculator) { c.logger = l }
}

// WithMetrics records every calculation in r.
func WithMetrics(r *metrics.Registry) Option {
	return func(c *Calculator) { c.metrics = r }
}

// NewCalculator returns a calculator. Without options it neither logs nor
// records metrics.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate validates in and, if it is valid, returns the full result.
// Limit violations are part of the result, never an error.
func (c *Calculator) Calculate(in Input) (*Result, error) {
	start := time.Now()
	timer := logging.StartTimer(c.logger, "calculation complete",
		logging.Int("total_anodes", in.Topology.TotalAnodes),
		logging.Int("link_starts", len(in.Topology.LinkStarts)),
	)

	res, err := compute(in, c.workers)
	if err != nil {
		result := metrics.ResultError
		if errors.Is(err, validation.ErrInvalidInput) {
			result = metrics.ResultInvalid
			timer.EndWarn("calculation rejected", logging.Error(err))
		} else {
			timer.EndError(err)
		}
		c.record(result, time.Since(start), nil)
		return nil, err
	}

	fields := []logging.Field{
		logging.CalculationID(res.ID.String()),
		logging.Int("hubs", len(res.Hubs)),
		logging.Int("links", len(res.Status.Links)),
		logging.String("status", string(res.Status.Status)),
		logging.Float64("lowest_voltage_v", res.Status.LowestVoltageV),
	}
	if res.OK() {
		timer.End(fields...)
		c.record(metrics.ResultOK, time.Since(start), res)
	} else {
		timer.EndWarn("calculation found violations", fields...)
		for _, l := range res.Status.Links {
			if !l.OK() {
				c.logger.Warn("link in violation",
					logging.CalculationID(res.ID.String()),
					logging.Link(l.LinkName),
					logging.Float64("current_a", l.CurrentA),
					logging.Float64("min_remaining_v", l.MinRemainingV),
				)
			}
		}
		c.record(metrics.ResultViolation, time.Since(start), res)
	}
	return res, nil
}

func (c *Calculator) record(result string, d time.Duration, res *Result) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordCalculation(result, d, Summarize(res))
}

// Summarize reduces a result to the figures recorded as metrics.
func Summarize(res *Result) metrics.CalculationSummary {
	if res == nil || res.Status == nil {
		return metrics.CalculationSummary{}
	}
	s := metrics.CalculationSummary{
		Hubs:              len(res.Hubs),
		LowestVoltageV:    res.Status.LowestVoltageV,
		MaxDropPercent:    res.Status.MaxDropPercent,
		TotalCurrentA:     res.Status.TotalCurrentA,
		UnderVoltageCount: len(res.Status.ViolationsByType(constraints.UnderVoltage)),
		OverCurrentCount:  len(res.Status.ViolationsByType(constraints.OverCurrent)),
	}
	for _, l := range res.Status.Links {
		if !l.OK() {
			s.LinksInViolation++
		}
	}
	return s
}
