package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemoteCallLatency records data-service call latency by operation and table.
	RemoteCallLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campusnet_remote_call_latency_seconds",
		Help:    "Remote data-service call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RemoteCallErrors counts failed remote calls by operation and table.
	RemoteCallErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusnet_remote_call_errors_total",
		Help: "Total number of failed remote calls by operation and table",
	}, []string{"operation", "table"})

	// MutationOutcomes counts mutation handler completions by handler and outcome.
	MutationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusnet_mutation_outcomes_total",
		Help: "Mutation handler completions by handler and outcome",
	}, []string{"handler", "outcome"})

	// GenCacheHits counts generation memo-cache lookups by result.
	GenCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusnet_gen_cache_lookups_total",
		Help: "Generation memo-cache lookups by result",
	}, []string{"result"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusnet_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// StorageUploadBytes records the size of uploaded objects.
	StorageUploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "campusnet_storage_upload_bytes",
		Help:    "Size in bytes of objects uploaded to storage",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})

	// RealtimeEvents counts realtime change notifications by table.
	RealtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusnet_realtime_events_total",
		Help: "Realtime change notifications received by table",
	}, []string{"table"})
)

// TrackRemoteCall returns a function that records call latency when invoked
// (e.g. with defer).
func TrackRemoteCall(operation, table string) func() {
	start := time.Now()
	return func() {
		RemoteCallLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
