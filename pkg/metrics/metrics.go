package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Calculation results used as label values.
const (
	ResultOK        = "ok"
	ResultViolation = "violation"
	ResultInvalid   = "invalid"
	ResultError     = "error"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize records the size of an HTTP response body
func (r *Registry) RecordResponseSize(method, path string, bytes int) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(float64(bytes))
}

// IncHTTPRequestsInFlight marks a request as started.
func (r *Registry) IncHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight marks a request as finished.
func (r *Registry) DecHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Dec()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func (r *Registry) RecordRateLimited() {
	r.HTTPRateLimitedTotal.Inc()
}

// CalculationSummary is what a finished calculation reports.
type CalculationSummary struct {
	Hubs              int
	LowestVoltageV    float64
	MaxDropPercent    float64
	TotalCurrentA     float64
	LinksInViolation  int
	UnderVoltageCount int
	OverCurrentCount  int
}

// RecordCalculation records a completed calculation. The "last" gauges
// describe the most recent successful run.
func (r *Registry) RecordCalculation(result string, duration time.Duration, s CalculationSummary) {
	r.CalculationsTotal.WithLabelValues(result).Inc()
	r.CalculationDuration.Observe(duration.Seconds())

	if result != ResultOK && result != ResultViolation {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.CalculationHubs.Observe(float64(s.Hubs))
	r.ViolationsTotal.WithLabelValues("UnderVoltage").Add(float64(s.UnderVoltageCount))
	r.ViolationsTotal.WithLabelValues("OverCurrent").Add(float64(s.OverCurrentCount))
	r.LastLowestVoltage.Set(s.LowestVoltageV)
	r.LastMaxDropPercent.Set(s.MaxDropPercent)
	r.LastTotalCurrentAmps.Set(s.TotalCurrentA)
	r.LastLinksInViolation.Set(float64(s.LinksInViolation))
}

// RecordReport records a report export.
func (r *Registry) RecordReport(format, status string, bytes int64) {
	r.ReportsTotal.WithLabelValues(format, status).Inc()
	if bytes > 0 {
		r.ReportBytesTotal.WithLabelValues(format).Add(float64(bytes))
	}
}

// UpdateSystemMetrics refreshes uptime, goroutine and memory gauges
func (r *Registry) UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}

// Handler serves the registry in the Prometheus text format. System gauges
// are refreshed on every scrape.
func (r *Registry) Handler() http.Handler {
	h := promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.UpdateSystemMetrics()
		h.ServeHTTP(w, req)
	})
}
