package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resourcehub_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// StoreOperationLatency records store operation latency by operation and collection.
	StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "resourcehub_store_operation_latency_seconds",
		Help:    "Store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// MirrorSnapshots counts snapshots applied per mirror.
	MirrorSnapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resourcehub_mirror_snapshots_total",
		Help: "Total number of collection snapshots applied by mirrors",
	}, []string{"mirror"})

	// MirrorSubscriptionErrors counts subscription failures per mirror.
	MirrorSubscriptionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resourcehub_mirror_subscription_errors_total",
		Help: "Total number of subscription errors surfaced by mirrors",
	}, []string{"mirror"})

	// MirrorEntities is the gauge of entities held per mirror.
	MirrorEntities = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "resourcehub_mirror_entities",
		Help: "Number of entities currently held by each mirror",
	}, []string{"mirror"})

	// RequestTransitions counts lifecycle operations by action and outcome.
	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resourcehub_request_transitions_total",
		Help: "Total request lifecycle operations by action and outcome",
	}, []string{"action", "outcome"})

	// RequestsByStatus is the gauge of requests per derived status.
	RequestsByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "resourcehub_requests",
		Help: "Number of requests per status, recomputed from mirror state",
	}, []string{"status"})

	// NotificationsPublished counts synthesized notifications pushed to viewers.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resourcehub_notifications_published_total",
		Help: "Total notifications synthesized and published",
	}, []string{"status"})

	// ActiveSessions is the gauge of dashboard sessions held in memory.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "resourcehub_active_sessions",
		Help: "Number of dashboard sessions held in memory",
	})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "resourcehub_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resourcehub_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackStoreOperation returns a function that records latency when called (e.g. defer).
func TrackStoreOperation(operation, collection string) func() {
	start := time.Now()
	return func() {
		StoreOperationLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}
