package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypewatch_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hypewatch_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hypewatch_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Listing fetch metrics
	FetchPages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypewatch_fetch_pages_total",
			Help: "Total number of listing page fetches",
		},
		[]string{"source", "status"}, // status: success|rate_limited|error
	)

	FetchItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypewatch_fetch_items_total",
			Help: "Total number of listing items kept after window filtering",
		},
		[]string{"source"},
	)

	// Mention pipeline metrics
	MentionRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypewatch_mention_rows_total",
			Help: "Total mention rows derived by window refreshes",
		},
		[]string{"kind"}, // kind: cashtag|keyword
	)

	MentionChunkFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hypewatch_mention_chunk_failures_total",
			Help: "Total mention refresh chunks that failed",
		},
	)

	// Job queue metrics
	JobOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypewatch_job_outcomes_total",
			Help: "Total import job outcomes by status",
		},
		[]string{"status"}, // status: done|error
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypewatch_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"}, // database: postgres|clickhouse|redis
	)

	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hypewatch_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"database", "operation"},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypewatch_kafka_messages_total",
			Help: "Total Kafka messages produced",
		},
		[]string{"topic", "status"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	prometheus.MustRegister(FetchPages)
	prometheus.MustRegister(FetchItems)

	prometheus.MustRegister(MentionRows)
	prometheus.MustRegister(MentionChunkFailures)

	prometheus.MustRegister(JobOutcomes)

	prometheus.MustRegister(DBQueries)
	prometheus.MustRegister(DBQueryDuration)

	prometheus.MustRegister(KafkaMessages)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordFetchPage records one listing page fetch
func RecordFetchPage(source, status string) {
	FetchPages.WithLabelValues(source, status).Inc()
}

// RecordDBQuery records a database query
func RecordDBQuery(database, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	DBQueries.WithLabelValues(database, operation, status).Inc()
	DBQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}
