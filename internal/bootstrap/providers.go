package bootstrap

import (
	chclient "asclepius/internal/adapters/clickhouse"
	"asclepius/internal/adapters/config"
	errnoop "asclepius/internal/adapters/errors/noop"
	"asclepius/internal/adapters/errors/sentry"
	"asclepius/internal/adapters/kafka"
	pgclient "asclepius/internal/adapters/postgres"
	redisclient "asclepius/internal/adapters/redis"
	"asclepius/internal/api"
	"asclepius/internal/api/health"
	"asclepius/internal/domain/assessment"
	"asclepius/internal/events"
	"asclepius/internal/metrics"
	"asclepius/internal/ml"
	chrepo "asclepius/internal/repository/clickhouse"
	pgrepo "asclepius/internal/repository/postgres"
	"asclepius/internal/repository/redis"
	scoringservice "asclepius/internal/services/scoring"
	"asclepius/pkg/errors"
	"asclepius/pkg/logger"
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	// Initialize error tracker
	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure initializes data stores (Postgres, ClickHouse, Redis)
func (c *Container) MustInitInfrastructure() {
	var err error

	// PostgreSQL
	c.Log.Info("Connecting to PostgreSQL...")
	c.PG, err = pgclient.NewClient(c.Config.Postgres)
	if err != nil {
		c.Log.Fatalf("failed to connect postgres: %v", err)
	}
	c.Log.Info("✓ PostgreSQL connected")

	// ClickHouse
	c.Log.Info("Connecting to ClickHouse...")
	c.CH, err = chclient.NewClient(c.Config.ClickHouse)
	if err != nil {
		c.Log.Fatalf("failed to connect clickhouse: %v", err)
	}
	c.Log.Info("✓ ClickHouse connected")

	// Redis
	c.Log.Info("Connecting to Redis...")
	c.Redis, err = redisclient.NewClient(c.Config.Redis)
	if err != nil {
		c.Log.Fatalf("failed to connect redis: %v", err)
	}
	c.Log.Info("✓ Redis connected")
}

// ========================================
// Phase 3: Domain Layer - Repositories
// ========================================

// MustInitRepositories initializes all domain repositories
func (c *Container) MustInitRepositories() {
	c.Repos.Samples = chrepo.NewSampleRepository(c.CH.Conn())
	c.Repos.Markers = chrepo.NewMarkerRepository(c.CH.Conn())
	c.Repos.Assessments = pgrepo.NewAssessmentRepository(c.PG.DB())
	c.Repos.IntakeLedger = redis.NewIntakeLedger(c.Redis.Client())

	c.Log.Info("✓ Repositories initialized")
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters initializes external adapters (Kafka)
func (c *Container) MustInitAdapters() {
	c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
	c.Adapters.Publisher = events.NewPublisher(c.Adapters.KafkaProducer, c.Log)
}

// ========================================
// Phase 5: Model Layer
// ========================================

// MustInitModels loads the chained regression bundle from its manifests
// The bundle is immutable after this point and shared by all scoring paths
func (c *Container) MustInitModels() {
	c.Log.Info("Loading model bundle...")

	bundle, err := ml.LoadBundle(ml.BundleConfig{
		CardiacManifest:  c.Config.Models.CardiacManifest,
		MobilityManifest: c.Config.Models.MobilityManifest,
		MetaManifest:     c.Config.Models.MetaManifest,
		ONNXSharedLib:    c.Config.Models.ONNXLibrary,
	})
	if err != nil {
		c.Log.Fatalf("failed to load model bundle: %v", err)
	}
	c.Models = bundle

	c.Log.Infof("✓ Models loaded: %s, %s, %s",
		bundle.Cardiac.Name(), bundle.Mobility.Name(), bundle.Meta.Name())
}

// ========================================
// Phase 6: Domain Services
// ========================================

// MustInitServices initializes the scoring services
func (c *Container) MustInitServices() {
	policy, err := assessment.ParsePolicy(c.Config.Pipeline.Policy)
	if err != nil {
		c.Log.Fatalf("invalid pipeline policy: %v", err)
	}

	mode, err := assessment.ParseMode(c.Config.Pipeline.Mode)
	if err != nil {
		c.Log.Fatalf("invalid pipeline mode: %v", err)
	}

	c.Services.Interpreter, err = assessment.NewInterpreter(assessment.InterpreterConfig{
		Policy:        policy,
		Mode:          mode,
		CardiacScale:  c.Config.Pipeline.CardiacScale,
		MobilityScale: c.Config.Pipeline.MobilityScale,
	})
	if err != nil {
		c.Log.Fatalf("failed to create interpreter: %v", err)
	}

	c.Services.Chain, err = scoringservice.NewChainFromBundle(c.Models)
	if err != nil {
		c.Log.Fatalf("failed to create score chain: %v", err)
	}

	c.Services.Pipeline = scoringservice.NewPipeline(
		c.Services.Chain,
		c.Services.Interpreter,
		c.Config.Pipeline.MaxConcurrency,
	)

	c.Log.Infof("✓ Services initialized (policy=%s mode=%s)", policy, mode)
}

// ========================================
// Phase 7: Application Layer
// ========================================

// MustInitApplication initializes the application layer (HTTP, metrics)
func (c *Container) MustInitApplication() {
	// Health handler
	c.Application.HealthHandler = health.New(
		c.Log,
		c.PG.DB(),
		c.CH.Conn(),
		c.Redis.Client(),
		c.Models,
		c.Config.App.Name,
		c.Config.App.Version,
	)

	// HTTP server (health + metrics endpoints)
	c.Application.HTTPServer = api.NewServer(api.ServerConfig{
		Port:        c.Config.HTTP.Port,
		ServiceName: c.Config.App.Name,
		Version:     c.Config.App.Version,
	}, c.Application.HealthHandler, c.Log)

	// Initialize metrics
	metrics.Init()
	customCollector := metrics.NewCustomCollector(c.Log, c.PG.DB(), c.CH.Conn(), c.Redis.Client())
	metrics.RegisterCustomCollector(customCollector)
	c.Log.Info("✓ Metrics initialized")

	c.Log.Info("✓ Application layer initialized")
}

// ========================================
// Phase 8: Background Processing
// ========================================

// MustInitBackground initializes background workers
func (c *Container) MustInitBackground() {
	// Report format is consumed deep inside the batch worker, so reject a
	// bad value here instead of on the first batch run
	switch c.Config.Intake.ReportFormat {
	case "csv", "parquet", "both":
	default:
		c.Log.Fatalf("invalid REPORT_FORMAT %q (want csv, parquet or both)", c.Config.Intake.ReportFormat)
	}

	c.Background.WorkerScheduler = provideWorkers(
		c.Repos,
		c.Redis,
		c.Adapters.Publisher,
		c.Services.Pipeline,
		c.Config,
		c.Log,
	)

	c.Log.Info("✓ Background processing initialized")
}

// ========================================
// Helper Provider Functions
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	log.Info("Initializing Kafka producer...")
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("Kafka brokers not configured, using default localhost:9092")
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Async:   false,
	})
	log.Info("✓ Kafka producer initialized")
	return producer
}

// provideWorkers is defined in workers.go
