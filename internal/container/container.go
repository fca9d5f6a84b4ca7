package container

import (
	"context"
	"fmt"
	"log"

	accadapter "gocnwi/adapters/accuracy"
	"gocnwi/adapters/postgres"
	sepadapter "gocnwi/adapters/stats/separability"
	"gocnwi/app"
	"gocnwi/internal"
	"gocnwi/internal/config"
	"gocnwi/internal/migration"
	"gocnwi/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (nil when no report store is configured)
	ReportRepo ports.ReportRepository

	// Engines
	Analyzer  *sepadapter.Analyzer
	Formatter *accadapter.Formatter

	// Services
	Separability *app.SeparabilityService
	Accuracy     *app.AccuracyService
	Reports      *app.ReportService
}

// New creates a container and builds the services that need no database
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	policy, err := sepadapter.ParseVariancePolicy(cfg.Separability.VariancePolicy)
	if err != nil {
		return nil, err
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))

	c := &Container{
		Config: cfg,
		Analyzer: sepadapter.NewAnalyzer(sepadapter.Config{
			VariancePolicy: policy,
			Workers:        cfg.Separability.Workers,
		}).WithLogger(logger.With("separability")),
		Formatter: accadapter.NewFormatter().WithLogger(logger.With("accuracy")),
	}
	c.buildServices()
	return c, nil
}

// InitWithDatabase attaches the report store, migrating its schema first
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	c.DB = db
	c.ReportRepo = postgres.NewReportRepository(db)
	c.buildServices()

	log.Printf("Container initialized with report store")
	return nil
}

func (c *Container) buildServices() {
	c.Separability = app.NewSeparabilityService(c.Analyzer, c.ReportRepo)
	c.Accuracy = app.NewAccuracyService(c.Formatter, c.ReportRepo, c.Config.Accuracy.VerifyTolerance)
	c.Reports = app.NewReportService(c.ReportRepo)
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
