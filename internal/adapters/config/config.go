package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"asclepius/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Models        ModelsConfig
	Pipeline      PipelineConfig
	Intake        IntakeConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"asclepius"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type HTTPConfig struct {
	Port int `envconfig:"HTTP_PORT" default:"8080"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"recovery"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" required:"true"`
}

// ModelsConfig points at the three pretrained regression artifacts. Each
// path names a manifest JSON describing the model next to it.
type ModelsConfig struct {
	CardiacManifest  string `envconfig:"MODEL_CARDIAC_MANIFEST" default:"models/cardiac.json"`
	MobilityManifest string `envconfig:"MODEL_MOBILITY_MANIFEST" default:"models/mobility.json"`
	MetaManifest     string `envconfig:"MODEL_META_MANIFEST" default:"models/meta.json"`
	ONNXLibrary      string `envconfig:"ONNX_SHARED_LIBRARY"`
}

// PipelineConfig parameterizes interpretation. Policy and mode select the
// recovery-days mapping and the advice variant; scales feed the percentile
// diagnostic in batch runs.
type PipelineConfig struct {
	Policy         string  `envconfig:"PIPELINE_POLICY" default:"linear_a"`
	Mode           string  `envconfig:"PIPELINE_MODE" default:"batch"`
	CardiacScale   float64 `envconfig:"PIPELINE_CARDIAC_SCALE" default:"120"`
	MobilityScale  float64 `envconfig:"PIPELINE_MOBILITY_SCALE" default:"150"`
	MaxConcurrency int     `envconfig:"PIPELINE_MAX_CONCURRENCY" default:"4"`
}

// IntakeConfig locates raw inputs and report outputs on disk
type IntakeConfig struct {
	TreadmillDir string `envconfig:"INTAKE_TREADMILL_DIR" default:"data/treadmill"`
	WearableDir  string `envconfig:"INTAKE_WEARABLE_DIR" default:"data/wearable"`
	ReportDir    string `envconfig:"REPORT_DIR" default:"reports"`
	ReportFormat string `envconfig:"REPORT_FORMAT" default:"csv"` // csv|parquet|both
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for the background workers
type WorkerConfig struct {
	// Intake worker (frequent, cheap when no new files)
	TreadmillIngestInterval time.Duration `envconfig:"WORKER_TREADMILL_INGEST_INTERVAL" default:"1m"`

	// Batch scoring worker (heavier, gated by the Redis lock)
	BatchScoreInterval time.Duration `envconfig:"WORKER_BATCH_SCORE_INTERVAL" default:"10m"`
	BatchLockTTL       time.Duration `envconfig:"WORKER_BATCH_LOCK_TTL" default:"15m"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
