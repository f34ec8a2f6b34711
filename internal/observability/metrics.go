package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qipu_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qipu_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ItemsIngested counts items accepted by the ingestion endpoint by kind.
	ItemsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qipu_items_ingested_total",
		Help: "Total number of ingested items by kind",
	}, []string{"kind"})

	// SignedURLsIssued counts signed URLs by HTTP method and outcome.
	SignedURLsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qipu_signed_urls_total",
		Help: "Total number of signed URL requests",
	}, []string{"method", "outcome"})

	// PasswordResetMails counts reset mails by outcome.
	PasswordResetMails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qipu_password_reset_mails_total",
		Help: "Total number of password reset mails",
	}, []string{"outcome"})

	// EventsPublished counts realtime events pushed to user channels.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qipu_events_published_total",
		Help: "Total realtime events published by type",
	}, []string{"event_type"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// Outcome maps an error to the "ok"/"error" label pair used by the counters.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
