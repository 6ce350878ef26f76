package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values for subject-level scoring outcomes.
const (
	StatusOK     = "success"
	StatusFailed = "error"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asclepius_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asclepius_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "asclepius_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Model metrics
	ModelInferences = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asclepius_model_inferences_total",
			Help: "Total number of model inference calls",
		},
		[]string{"model"},
	)

	ModelLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asclepius_model_latency_seconds",
			Help:    "Model inference latency in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"model"},
	)

	// Scoring metrics
	SubjectsScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asclepius_subjects_scored_total",
			Help: "Total number of subjects pushed through the scoring chain",
		},
		[]string{"status"}, // status: success|error
	)

	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "asclepius_batch_duration_seconds",
			Help:    "End-to-end scoring batch duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		},
	)

	// Intake metrics
	SessionsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asclepius_sessions_extracted_total",
			Help: "Total number of treadmill sessions reduced to recovery markers",
		},
		[]string{"status"}, // status: success|error
	)

	SessionsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asclepius_sessions_skipped_total",
			Help: "Total number of treadmill sessions skipped during extraction",
		},
		[]string{"reason"}, // reason: no_complete_rows|no_recovery_sample|zero_peak_vo2
	)

	SamplesIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "asclepius_treadmill_samples_ingested_total",
			Help: "Total number of treadmill samples written to storage",
		},
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asclepius_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"}, // database: postgres|clickhouse|redis
	)

	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asclepius_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"database", "operation"},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asclepius_kafka_messages_total",
			Help: "Total Kafka messages produced",
		},
		[]string{"topic", "status"}, // status: success|error
	)
)

// Init registers all metrics with Prometheus
func Init() {
	// Worker metrics
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	// Model metrics
	prometheus.MustRegister(ModelInferences)
	prometheus.MustRegister(ModelLatency)

	// Scoring metrics
	prometheus.MustRegister(SubjectsScored)
	prometheus.MustRegister(BatchDuration)

	// Intake metrics
	prometheus.MustRegister(SessionsExtracted)
	prometheus.MustRegister(SessionsSkipped)
	prometheus.MustRegister(SamplesIngested)

	// Database metrics
	prometheus.MustRegister(DBQueries)
	prometheus.MustRegister(DBQueryDuration)

	// System metrics
	prometheus.MustRegister(KafkaMessages)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordModelLatency records a single model inference call
func RecordModelLatency(model string, seconds float64) {
	ModelInferences.WithLabelValues(model).Inc()
	ModelLatency.WithLabelValues(model).Observe(seconds)
}

// RecordSubjectScored records the outcome of scoring one subject
func RecordSubjectScored(status string) {
	SubjectsScored.WithLabelValues(status).Inc()
}

// RecordBatchDuration records an end-to-end batch scoring run
func RecordBatchDuration(seconds float64) {
	BatchDuration.Observe(seconds)
}

// RecordSessionExtracted records the outcome of reducing one session to markers
func RecordSessionExtracted(status string) {
	SessionsExtracted.WithLabelValues(status).Inc()
}

// RecordSessionSkipped records a session dropped during marker extraction
func RecordSessionSkipped(reason string) {
	SessionsSkipped.WithLabelValues(reason).Inc()
}

// RecordSamplesIngested records treadmill samples written to storage
func RecordSamplesIngested(count int) {
	if count > 0 {
		SamplesIngested.Add(float64(count))
	}
}

// RecordDBQuery records a database query
func RecordDBQuery(database, operation string, duration time.Duration, err error) {
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}

	DBQueries.WithLabelValues(database, operation, status).Inc()
	DBQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

// RecordKafkaMessage records a produced Kafka message
func RecordKafkaMessage(topic string, err error) {
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}

	KafkaMessages.WithLabelValues(topic, status).Inc()
}
