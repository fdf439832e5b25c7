package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the export pipeline.
// A nil *Metrics records nothing.
type Metrics struct {
	jobs        *prometheus.CounterVec
	rows        *prometheus.CounterVec
	flushes     prometheus.Counter
	inFlight    prometheus.Gauge
	jobDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		jobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sheetstream_export_jobs_total",
				Help: "Total number of export jobs by final status",
			},
			[]string{"job", "status"},
		),

		rows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sheetstream_export_rows_total",
				Help: "Total number of rows written to destinations",
			},
			[]string{"job"},
		),

		flushes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sheetstream_writer_flushes_total",
				Help: "Total number of threshold flushes performed by writers",
			},
		),

		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sheetstream_export_jobs_in_flight",
				Help: "Number of export jobs currently running",
			},
		),

		jobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sheetstream_export_job_duration_seconds",
				Help:    "Duration of export jobs in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 16), // 10ms to ~5.5min
			},
			[]string{"job"},
		),
	}
}

func (m *Metrics) jobStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// RecordJob records the outcome of a finished job.
func (m *Metrics) RecordJob(job *ExportJob) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.jobs.WithLabelValues(job.Name, string(job.Status)).Inc()
	m.jobDuration.WithLabelValues(job.Name).Observe(job.Finished.Sub(job.Started).Seconds())
	if job.Stats != nil {
		m.rows.WithLabelValues(job.Name).Add(float64(job.Stats.RowsProcessed))
		m.flushes.Add(float64(job.Stats.Flushes))
	}
}
