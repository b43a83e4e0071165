package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	relayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sensorrelay",
		Subsystem: "relay",
		Name:      "requests_total",
		Help:      "Count of relay pipeline executions by result.",
	}, []string{"result"})
	relayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sensorrelay",
		Subsystem: "relay",
		Name:      "request_duration_seconds",
		Help:      "Duration of relay pipeline executions by result.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})
)

// Relay tracks metrics for the request pipeline.
type Relay struct{}

// NewRelay constructs a metrics collector for the relay pipeline.
func NewRelay() *Relay {
	return &Relay{}
}

// Observe records one pipeline execution outcome and duration.
func (m Relay) Observe(result string, started time.Time) {
	relayRequestsTotal.WithLabelValues(result).Inc()
	relayRequestDuration.WithLabelValues(result).Observe(time.Since(started).Seconds())
}
