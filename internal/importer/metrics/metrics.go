package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the import pipeline.
type Metrics struct {
	RunsTotal        prometheus.Counter
	RunDuration      prometheus.Histogram
	RecordsProcessed *prometheus.CounterVec
	RecordFailures   *prometheus.CounterVec
	FetchFailures    *prometheus.CounterVec
}

// New creates and registers all import metrics.
func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "regsync_import_runs_total",
			Help: "Total number of import runs started",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "regsync_import_run_duration_seconds",
			Help:    "Wall-clock duration of import runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		RecordsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "regsync_records_processed_total",
			Help: "Source items successfully reconciled, by record type",
		}, []string{"record_type"}),
		RecordFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "regsync_record_failures_total",
			Help: "Source items that failed to import, by record type",
		}, []string{"record_type"}),
		FetchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "regsync_fetch_failures_total",
			Help: "Remote fetch failures, by record type",
		}, []string{"record_type"}),
	}
}

// Nil-safe increment helpers so services can run without metrics wired
// (unit tests, one-off CLI runs).

func (m *Metrics) IncRunsTotal() {
	if m != nil {
		m.RunsTotal.Inc()
	}
}

func (m *Metrics) ObserveRunDuration(d time.Duration) {
	if m != nil {
		m.RunDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) IncRecordsProcessed(recordType string) {
	if m != nil {
		m.RecordsProcessed.WithLabelValues(recordType).Inc()
	}
}

func (m *Metrics) IncRecordFailures(recordType string) {
	if m != nil {
		m.RecordFailures.WithLabelValues(recordType).Inc()
	}
}

func (m *Metrics) IncFetchFailures(recordType string) {
	if m != nil {
		m.FetchFailures.WithLabelValues(recordType).Inc()
	}
}
