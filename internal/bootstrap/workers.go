package bootstrap

import (
	"asclepius/internal/adapters/config"
	redisclient "asclepius/internal/adapters/redis"
	"asclepius/internal/events"
	scoringservice "asclepius/internal/services/scoring"
	"asclepius/internal/workers"
	"asclepius/internal/workers/ingest"
	scoringworkers "asclepius/internal/workers/scoring"
	"asclepius/pkg/logger"
)

// provideWorkers initializes all background workers
func provideWorkers(
	repos *Repositories,
	redisClient *redisclient.Client,
	publisher *events.Publisher,
	pipeline *scoringservice.Pipeline,
	cfg *config.Config,
	log *logger.Logger,
) *workers.Scheduler {
	log.Info("Initializing workers...")

	scheduler := workers.NewScheduler()

	// ========================================
	// Intake Workers (high frequency)
	// ========================================

	// Treadmill ingest: Picks up new CPET logs and extracts session markers
	scheduler.RegisterWorker(ingest.NewTreadmillIngestWorker(
		repos.IntakeLedger,
		repos.Samples,
		repos.Markers,
		publisher,
		cfg.Intake.TreadmillDir,
		cfg.Workers.TreadmillIngestInterval,
		true, // enabled
	))

	// ========================================
	// Scoring Workers (low frequency)
	// ========================================

	// Batch scorer: Scores every unassessed subject and writes reports
	scheduler.RegisterWorker(scoringworkers.NewBatchScoreWorker(
		repos.Markers,
		repos.Assessments,
		redisClient,
		publisher,
		pipeline,
		cfg.Intake.WearableDir,
		cfg.Intake.ReportDir,
		cfg.Intake.ReportFormat,
		cfg.Workers.BatchLockTTL,
		cfg.Workers.BatchScoreInterval,
		true, // enabled
	))

	log.Info("Worker intervals configured",
		"treadmill_ingest", cfg.Workers.TreadmillIngestInterval,
		"batch_score", cfg.Workers.BatchScoreInterval,
	)

	log.Infof("✓ Workers initialized: %d registered", len(scheduler.GetWorkers()))

	return scheduler
}
