package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreCallLatency observes board → store round trips in milliseconds.
	StoreCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "board_store_call_latency_ms",
			Help:    "Task/Note store call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10), // 5ms to ~2.5s
		},
		[]string{"operation", "status"},
	)

	SyncOperationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_sync_operation_total",
			Help: "Task sync facade operations by outcome",
		},
		[]string{"operation", "outcome"}, // outcome: ok, validation, not_found, remote_error, stale
	)

	NotificationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_deadline_notification_total",
			Help: "Deadline notifications emitted or suppressed",
		},
		[]string{"severity", "result"}, // result: emitted, suppressed
	)

	NoteAutosaveCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_note_autosave_total",
			Help: "Debounced note write-backs by status",
		},
		[]string{"status"}, // status: success, failed
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Queries slower than the configured threshold",
		},
		[]string{"command"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

func RecordStoreCallLatency(operation, status string, duration time.Duration) {
	StoreCallLatency.WithLabelValues(operation, status).Observe(float64(duration.Milliseconds()))
}

func IncrementSyncOperation(operation, outcome string) {
	SyncOperationCount.WithLabelValues(operation, outcome).Inc()
}

func IncrementNotification(severity, result string) {
	NotificationCount.WithLabelValues(severity, result).Inc()
}

func IncrementNoteAutosave(status string) {
	NoteAutosaveCount.WithLabelValues(status).Inc()
}

func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery counts a slow query under its leading SQL keyword to keep
// label cardinality bounded.
func IncrementSlowQuery(command string) {
	SlowQueryCount.WithLabelValues(command).Inc()
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
