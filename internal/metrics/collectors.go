package metrics

import (
	"context"
	"time"

	"asclepius/pkg/logger"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// processedIntakeKey mirrors the intake ledger key used by the Redis repository.
const processedIntakeKey = "asclepius:intake:processed"

// CustomCollector collects custom metrics from databases
type CustomCollector struct {
	log        *logger.Logger
	postgres   *sqlx.DB
	clickhouse driver.Conn
	redis      *redis.Client

	// Descriptors
	totalAssessments  *prometheus.Desc
	assessedSubjects  *prometheus.Desc
	recentAssessments *prometheus.Desc
	totalSamples      *prometheus.Desc
	totalMarkers      *prometheus.Desc
	processedIntake   *prometheus.Desc
}

// NewCustomCollector creates a new custom metrics collector
func NewCustomCollector(log *logger.Logger, postgres *sqlx.DB, clickhouse driver.Conn, redis *redis.Client) *CustomCollector {
	return &CustomCollector{
		log:        log,
		postgres:   postgres,
		clickhouse: clickhouse,
		redis:      redis,

		totalAssessments: prometheus.NewDesc(
			"asclepius_total_assessments",
			"Total number of stored assessments by policy",
			[]string{"policy"}, nil,
		),
		assessedSubjects: prometheus.NewDesc(
			"asclepius_assessed_subjects",
			"Number of distinct subjects with at least one assessment",
			nil, nil,
		),
		recentAssessments: prometheus.NewDesc(
			"asclepius_assessments_24h",
			"Assessments stored in the last 24h",
			nil, nil,
		),
		totalSamples: prometheus.NewDesc(
			"asclepius_treadmill_samples_stored",
			"Total number of treadmill samples in ClickHouse",
			nil, nil,
		),
		totalMarkers: prometheus.NewDesc(
			"asclepius_recovery_markers_stored",
			"Total number of recovery markers in ClickHouse",
			nil, nil,
		),
		processedIntake: prometheus.NewDesc(
			"asclepius_intake_files_processed",
			"Number of intake files recorded in the processed ledger",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *CustomCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalAssessments
	ch <- c.assessedSubjects
	ch <- c.recentAssessments
	ch <- c.totalSamples
	ch <- c.totalMarkers
	ch <- c.processedIntake
}

// Collect implements prometheus.Collector
func (c *CustomCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Collect assessment stats
	c.collectAssessmentStats(ctx, ch)

	// Collect subject count
	c.collectSubjectCount(ctx, ch)

	// Collect recent assessment count
	c.collectRecentAssessments(ctx, ch)

	// Collect ClickHouse table sizes
	c.collectSampleCounts(ctx, ch)

	// Collect intake ledger size
	c.collectProcessedIntake(ctx, ch)
}

func (c *CustomCollector) collectAssessmentStats(ctx context.Context, ch chan<- prometheus.Metric) {
	type AssessmentStat struct {
		Policy string `db:"policy"`
		Count  int    `db:"count"`
	}

	var stats []AssessmentStat
	err := c.postgres.SelectContext(ctx, &stats, `
		SELECT policy, COUNT(*) as count
		FROM assessments
		GROUP BY policy
	`)
	if err != nil {
		c.log.Error("Failed to collect assessment stats", "error", err)
		return
	}

	for _, stat := range stats {
		ch <- prometheus.MustNewConstMetric(
			c.totalAssessments,
			prometheus.GaugeValue,
			float64(stat.Count),
			stat.Policy,
		)
	}
}

func (c *CustomCollector) collectSubjectCount(ctx context.Context, ch chan<- prometheus.Metric) {
	var count int
	err := c.postgres.GetContext(ctx, &count, "SELECT COUNT(DISTINCT subject_id) FROM assessments")
	if err != nil {
		c.log.Error("Failed to collect subject count metric", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.assessedSubjects,
		prometheus.GaugeValue,
		float64(count),
	)
}

func (c *CustomCollector) collectRecentAssessments(ctx context.Context, ch chan<- prometheus.Metric) {
	var count int
	err := c.postgres.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM assessments
		WHERE created_at > NOW() - INTERVAL '24 hours'
	`)
	if err != nil {
		c.log.Error("Failed to collect recent assessment stats", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.recentAssessments,
		prometheus.CounterValue,
		float64(count),
	)
}

func (c *CustomCollector) collectSampleCounts(ctx context.Context, ch chan<- prometheus.Metric) {
	var samples uint64
	if err := c.clickhouse.QueryRow(ctx, "SELECT count() FROM treadmill_samples").Scan(&samples); err != nil {
		c.log.Error("Failed to collect treadmill sample count", "error", err)
	} else {
		ch <- prometheus.MustNewConstMetric(
			c.totalSamples,
			prometheus.GaugeValue,
			float64(samples),
		)
	}

	var markers uint64
	if err := c.clickhouse.QueryRow(ctx, "SELECT count() FROM recovery_markers").Scan(&markers); err != nil {
		c.log.Error("Failed to collect recovery marker count", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.totalMarkers,
		prometheus.GaugeValue,
		float64(markers),
	)
}

func (c *CustomCollector) collectProcessedIntake(ctx context.Context, ch chan<- prometheus.Metric) {
	count, err := c.redis.SCard(ctx, processedIntakeKey).Result()
	if err != nil {
		c.log.Error("Failed to collect intake ledger size", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.processedIntake,
		prometheus.GaugeValue,
		float64(count),
	)
}

// RegisterCustomCollector registers the custom collector
func RegisterCustomCollector(collector *CustomCollector) {
	prometheus.MustRegister(collector)
}
