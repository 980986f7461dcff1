// Package metrics defines the Prometheus collectors for the ledger engine.
// Everything registers on the default registry; cmd/server exposes it at
// /metrics via promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecomputeDuration observes how long one netting recompute plus its
	// atomic store write takes.
	RecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "splitsync",
		Name:      "recompute_duration_seconds",
		Help:      "Duration of netting recompute and atomic edge replacement.",
		Buckets:   prometheus.DefBuckets,
	})

	// EdgesReplaced counts debt edges written by recomputes.
	EdgesReplaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "splitsync",
		Name:      "edges_replaced_total",
		Help:      "Total debt edges written by netting recomputes.",
	})

	// ReconcileRetries counts subscription retry attempts.
	ReconcileRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "splitsync",
		Name:      "reconcile_retries_total",
		Help:      "Change-feed subscription retry attempts.",
	})

	// ReconcileFlushes counts debounced refresh cycles actually run.
	ReconcileFlushes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "splitsync",
		Name:      "reconcile_flushes_total",
		Help:      "Coalesced reconciliation refresh cycles.",
	})

	// RPCDuration observes per-procedure RPC latency.
	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "splitsync",
		Name:      "rpc_duration_seconds",
		Help:      "Duration of RPC calls by procedure.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure", "code"})
)
