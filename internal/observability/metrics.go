// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doneby_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "doneby_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// EntriesCreated counts action-plan entries created.
	EntriesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doneby_entries_created_total",
		Help: "Total number of action-plan entries created",
	})

	// EntriesAchieved counts achievement transitions (pending to achieved).
	EntriesAchieved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doneby_entries_achieved_total",
		Help: "Total number of entries marked achieved",
	})

	// OrphanVideosDeleted counts videos garbage-collected after losing their last entry.
	OrphanVideosDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doneby_orphan_videos_deleted_total",
		Help: "Total number of orphaned catalog videos deleted",
	})

	// ExternalCallDuration records collaborator call latency by service and outcome.
	ExternalCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "doneby_external_call_duration_seconds",
		Help:    "External collaborator call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "outcome"})

	// ThumbnailJobs counts background thumbnail generation jobs by result.
	ThumbnailJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doneby_thumbnail_jobs_total",
		Help: "Total thumbnail generation jobs by result",
	}, []string{"result"})
)

// ObserveExternalCall records the duration and outcome of a collaborator call.
func ObserveExternalCall(service string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ExternalCallDuration.WithLabelValues(service, outcome).Observe(time.Since(start).Seconds())
}
