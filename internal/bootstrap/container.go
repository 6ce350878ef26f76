package bootstrap

import (
	"context"
	"sync"

	chclient "asclepius/internal/adapters/clickhouse"
	"asclepius/internal/adapters/config"
	"asclepius/internal/adapters/kafka"
	pgclient "asclepius/internal/adapters/postgres"
	redisclient "asclepius/internal/adapters/redis"
	"asclepius/internal/api"
	"asclepius/internal/api/health"
	"asclepius/internal/domain/assessment"
	"asclepius/internal/domain/cardio"
	"asclepius/internal/domain/intake"
	"asclepius/internal/events"
	"asclepius/internal/ml"
	scoringservice "asclepius/internal/services/scoring"
	"asclepius/internal/workers"
	"asclepius/pkg/errors"
	"asclepius/pkg/logger"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (Data stores)
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client

	// Domain Layer - Repositories
	Repos *Repositories

	// Model Layer - the chained regression bundle, loaded before any scoring
	Models *ml.Bundle

	// Domain Layer - Services
	Services *Services

	// External Adapters
	Adapters *Adapters

	// Application Layer
	Application *Application

	// Background Processing
	Background *Background

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups all domain repositories
type Repositories struct {
	Samples      cardio.SampleRepository
	Markers      cardio.MarkerRepository
	Assessments  assessment.Repository
	IntakeLedger intake.Ledger
}

// Services groups the scoring services
type Services struct {
	Chain       *scoringservice.Chain
	Interpreter *assessment.Interpreter
	Pipeline    *scoringservice.Pipeline
}

// Adapters groups all external adapters
type Adapters struct {
	KafkaProducer *kafka.Producer
	Publisher     *events.Publisher
}

// Application groups application layer components
type Application struct {
	HTTPServer    *api.Server
	HealthHandler *health.Handler
}

// Background groups all background processing components
type Background struct {
	WorkerScheduler *workers.Scheduler
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:       &Repositories{},
		Services:    &Services{},
		Adapters:    &Adapters{},
		Application: &Application{},
		Background:  &Background{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitModels()
	c.MustInitServices()
	c.MustInitApplication()
	c.MustInitBackground()
}

// Start starts all background components
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	// Start HTTP server
	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	// Start workers
	if err := c.Background.WorkerScheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	// Cancel application context to signal all components to stop
	c.Cancel()

	// Perform coordinated cleanup with explicit order
	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.HTTPServer,
		c.Background.WorkerScheduler,
		c.Adapters.KafkaProducer,
		c.Models,
		c.PG,
		c.CH,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}
