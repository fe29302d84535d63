// Package metrics exposes the Prometheus instrumentation for the
// storage core. Collectors are registered on the default registry;
// cmd/server serves them at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tallyhq/tally/internal/storage"
)

var (
	// StorageOps counts store operations by name and outcome. The
	// result label is "ok" or a taxonomy kind.
	StorageOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_storage_operations_total",
		Help: "Storage operations by operation name and result kind.",
	}, []string{"op", "result"})

	// GateWait observes how long operations waited for a concurrency
	// permit, by mode (read or write).
	GateWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tally_storage_gate_wait_seconds",
		Help:    "Time spent waiting for a concurrency-gate permit.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	// MigrationsApplied counts schema migrations applied by this
	// process.
	MigrationsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tally_schema_migrations_applied_total",
		Help: "Schema migrations applied since process start.",
	})
)

// ObserveOp records one finished store operation.
func ObserveOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = storage.KindOf(err).String()
	}
	StorageOps.WithLabelValues(op, result).Inc()
}

// ObserveGateWait records one permit acquisition.
func ObserveGateWait(mode string, d time.Duration) {
	GateWait.WithLabelValues(mode).Observe(d.Seconds())
}
