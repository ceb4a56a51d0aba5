package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initReportMetrics() {
	r.ReportsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "apwr_reports_total",
			Help: "Reports written, by format and status",
		},
		[]string{"format", "status"},
	)

	r.ReportBytesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "apwr_report_bytes_total",
			Help: "Bytes of report output written, by format",
		},
		[]string{"format"},
	)

	r.ReportPublishErrors = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "apwr_report_publish_errors_total",
			Help: "Failed uploads of reports to object storage",
		},
	)
}
