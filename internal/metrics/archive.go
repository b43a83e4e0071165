package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	archiveRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sensorrelay",
		Subsystem: "archive",
		Name:      "operations_total",
		Help:      "Count of content archive operations.",
	}, []string{"operation", "status"})
	archiveRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sensorrelay",
		Subsystem: "archive",
		Name:      "operation_duration_seconds",
		Help:      "Duration of content archive operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "status"})
	archiveSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sensorrelay",
		Subsystem: "archive",
		Name:      "pins_skipped_total",
		Help:      "Count of pins skipped because archiving is disabled.",
	})
)

// Archive tracks metrics for content archive calls.
type Archive struct{}

// NewArchive constructs a metrics collector for archive calls.
func NewArchive() *Archive {
	return &Archive{}
}

// Observe records a single archive call outcome and duration.
func (m Archive) Observe(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}

	archiveRequestsTotal.WithLabelValues(operation, status).Inc()
	archiveRequestDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}

// ObserveSkip records a pin that was skipped in degraded mode.
func (m Archive) ObserveSkip() {
	archiveSkippedTotal.Inc()
}
