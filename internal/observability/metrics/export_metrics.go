package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ExportResultSuccess = "success"
	ExportResultError   = "error"
)

var (
	exportOnce    sync.Once
	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

func registerExportMetrics() {
	exportOnce.Do(func() {
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_export_total",
				Help: "Receipt and statement exports by format and result.",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "settlement_export_latency_seconds",
				Help:    "Receipt and statement export latency by format.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"format"},
		)
		prometheus.MustRegister(exportTotal, exportLatency)
	})
}

// ObserveExport records one render-and-store attempt, format is "pdf" or "xlsx".
func ObserveExport(format, result string, duration time.Duration) {
	registerExportMetrics()
	exportTotal.WithLabelValues(format, result).Inc()
	exportLatency.WithLabelValues(format).Observe(duration.Seconds())
}
