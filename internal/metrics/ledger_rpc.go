// Package metrics provides prometheus collectors for the relay.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerRPCRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sensorrelay",
		Subsystem: "ledger_rpc",
		Name:      "operations_total",
		Help:      "Count of ledger node RPC operations.",
	}, []string{"operation", "chain_id", "status"})
	ledgerRPCRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sensorrelay",
		Subsystem: "ledger_rpc",
		Name:      "operation_duration_seconds",
		Help:      "Duration of ledger node RPC operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "chain_id", "status"})
)

// LedgerRPC tracks metrics for JSON-RPC calls to the ledger node.
type LedgerRPC struct {
	chainID string
}

// NewLedgerRPC constructs a metrics collector for ledger RPC calls.
func NewLedgerRPC(chainID uint64) *LedgerRPC {
	return &LedgerRPC{chainID: strconv.FormatUint(chainID, 10)}
}

// Observe records a single RPC call outcome and duration.
func (m LedgerRPC) Observe(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}

	ledgerRPCRequestsTotal.WithLabelValues(operation, m.chainID, status).Inc()
	ledgerRPCRequestDuration.WithLabelValues(operation, m.chainID, status).Observe(time.Since(started).Seconds())
}
