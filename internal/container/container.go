// Package container provides dependency injection for the application.
// It centralizes the creation and wiring of all dependencies, making them
// explicit and testable.
package container

import (
	"fmt"

	"fjacquet/commission-reconcile/internal/classifier"
	"fjacquet/commission-reconcile/internal/config"
	"fjacquet/commission-reconcile/internal/hubspot"
	"fjacquet/commission-reconcile/internal/logging"
	"fjacquet/commission-reconcile/internal/plan"
	"fjacquet/commission-reconcile/internal/reconciler"
	"fjacquet/commission-reconcile/internal/report"
	"fjacquet/commission-reconcile/internal/salescookie"
)

// Container holds all application dependencies and provides methods to
// access them. It is immutable after creation: all fields are private and
// only reachable through getters, so dependencies cannot be swapped out
// after initialization.
type Container struct {
	logger     logging.Logger
	config     *config.Config
	classifier *classifier.Classifier
	registry   *plan.Registry

	dealParser *hubspot.Parser
	txParser   *salescookie.Parser
	engine     *reconciler.Engine
	writer     *report.Writer
}

// NewContainer creates and wires all application dependencies from the
// loaded configuration. This is the single composition point of the
// application.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	cls := classifier.New(cfg.Reconcile.CentrallyManagedMarkers)

	registry := plan.NewDefaultRegistry()
	if cfg.Plans.File != "" {
		loaded, err := plan.LoadFile(cfg.Plans.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load plans file: %w", err)
		}
		registry = loaded
	}

	engine := reconciler.New(registry, cls, reconciler.Config{
		CompanySuffixes:     cfg.Reconcile.CompanySuffixes,
		Tolerance:           cfg.Tolerance(),
		HighImpactThreshold: cfg.HighImpactThreshold(),
		HomeCurrency:        cfg.Reconcile.HomeCurrency,
	}, logger)

	return &Container{
		logger:     logger,
		config:     cfg,
		classifier: cls,
		registry:   registry,
		dealParser: hubspot.NewParser(cls, logger),
		txParser:   salescookie.NewParser(cls, logger),
		engine:     engine,
		writer:     report.NewWriter(logger),
	}, nil
}

// GetLogger returns the shared logger.
func (c *Container) GetLogger() logging.Logger { return c.logger }

// GetConfig returns the application configuration.
func (c *Container) GetConfig() *config.Config { return c.config }

// GetClassifier returns the trait classifier.
func (c *Container) GetClassifier() *classifier.Classifier { return c.classifier }

// GetRegistry returns the commission-plan registry.
func (c *Container) GetRegistry() *plan.Registry { return c.registry }

// GetDealParser returns the CRM deal normalizer.
func (c *Container) GetDealParser() *hubspot.Parser { return c.dealParser }

// GetTransactionParser returns the compensation-export normalizer.
func (c *Container) GetTransactionParser() *salescookie.Parser { return c.txParser }

// GetEngine returns the reconciliation engine.
func (c *Container) GetEngine() *reconciler.Engine { return c.engine }

// GetReportWriter returns the result writer.
func (c *Container) GetReportWriter() *report.Writer { return c.writer }
