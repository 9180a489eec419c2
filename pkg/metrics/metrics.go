package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncedEmails counts email records persisted by the sync step.
	SyncedEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_emails_total",
			Help: "Total number of email records discovered and persisted during sync",
		},
		[]string{"result"}, // result: new, known, failed
	)

	// ClassifiedEmails counts emails by run outcome.
	ClassifiedEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classified_emails_total",
			Help: "Total number of emails processed by classification runs",
		},
		[]string{"result"}, // result: classified, failed
	)

	// BatchOutcomes counts classification batches by outcome.
	BatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classification_batches_total",
			Help: "Total number of classification batches dispatched",
		},
		[]string{"outcome"}, // outcome: ok, generation_error, validation_error, canceled
	)

	// BatchLatency observes the round trip of one classification call.
	BatchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classification_batch_latency_ms",
			Help:    "Classification call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
	)

	// RunDuration observes full classification run durations.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classification_run_duration_seconds",
			Help:    "End to end classification run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
)

// RecordBatchLatency records the latency of one classification call.
func RecordBatchLatency(d time.Duration) {
	BatchLatency.Observe(float64(d.Milliseconds()))
}

// RecordRunDuration records a full run duration.
func RecordRunDuration(d time.Duration) {
	RunDuration.Observe(d.Seconds())
}
