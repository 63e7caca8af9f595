// Package metrics registers the Prometheus collectors of the campaign service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event log writer metrics
	LogsBuiltTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_event_logs_built_total",
			Help: "Total number of event logs built",
		},
		[]string{"trigger"}, // system or user
	)

	LogsPersistedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_event_logs_persisted_total",
			Help: "Total number of queued event logs persisted by batch flushes",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campaign_event_log_queue_depth",
			Help: "Number of event logs waiting for the next batch flush",
		},
	)

	FlushBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campaign_event_log_flush_batch_size",
			Help:    "Number of event logs written per batch flush",
			Buckets: []float64{1, 2, 5, 10, 15, 20, 50, 100},
		},
	)

	FlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campaign_event_log_flush_duration_seconds",
			Help:    "Duration of batch flushes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	FlushErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_event_log_flush_errors_total",
			Help: "Total number of failed batch flushes",
		},
	)

	// Repository metrics
	StorageOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_event_log_storage_operations_total",
			Help: "Total number of repository calls by operation and status",
		},
		[]string{"operation", "status"},
	)

	// Execution metrics
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_executions_total",
			Help: "Total number of campaign event executions",
		},
		[]string{"source", "status"},
	)

	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaign_execution_duration_seconds",
			Help:    "Duration of campaign event executions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
)

// TriggerLabel maps the system-triggered flag to a label value.
func TriggerLabel(systemTriggered bool) string {
	if systemTriggered {
		return "system"
	}
	return "user"
}

// ObserveStorage counts a repository call.
func ObserveStorage(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StorageOperations.WithLabelValues(operation, status).Inc()
}
