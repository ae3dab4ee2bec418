// Package metrics exposes file processing counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements convert.Recorder.
type Metrics struct {
	gatherer prometheus.Gatherer
	files    *prometheus.CounterVec
	seconds  *prometheus.HistogramVec
	rows     prometheus.Counter
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &Metrics{
		gatherer: reg,
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sweeper_files_processed_total",
			Help: "Uploaded files processed, by input format and outcome.",
		}, []string{"format", "outcome"}),
		seconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sweeper_file_processing_seconds",
			Help:    "Time spent processing one file.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"format"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweeper_rows_processed_total",
			Help: "Rows written by successfully processed files.",
		}),
	}
	reg.MustRegister(m.files, m.seconds, m.rows)
	return m
}

func (m *Metrics) ObserveFile(format, outcome string, rows int, d time.Duration) {
	m.files.WithLabelValues(format, outcome).Inc()
	m.seconds.WithLabelValues(format).Observe(d.Seconds())
	if outcome == "ok" {
		m.rows.Add(float64(rows))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
