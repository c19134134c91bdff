// Package container provides dependency injection for the ingestion service.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rahulcharvekar/reconciliation-service/internal/config"
	"github.com/rahulcharvekar/reconciliation-service/internal/fileutils"
	"github.com/rahulcharvekar/reconciliation-service/internal/ingest"
	"github.com/rahulcharvekar/reconciliation-service/internal/logging"
	"github.com/rahulcharvekar/reconciliation-service/internal/store"
	"github.com/rahulcharvekar/reconciliation-service/internal/store/sqlstore"
)

// DriverMemory selects the in-process store. Data is lost on exit.
const DriverMemory = "memory"

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation: all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger  logging.Logger
	config  *config.Config
	store   store.Store
	service *ingest.Service
	mt940   *ingest.MT940Format
	van     *ingest.VANFormat
}

// NewContainer creates and wires all application dependencies.
// This is the main entry point for dependency injection in the application.
//
// Parameters:
//   - ctx: bounds opening and migrating the database
//   - cfg: Application configuration
//
// Returns:
//   - *Container: Fully wired container with all dependencies
//   - error: Any error encountered during dependency creation
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)

	st, err := openStore(ctx, cfg.Store.Driver, cfg.Store.DSN, logger)
	if err != nil {
		return nil, err
	}

	orchestrator := ingest.NewOrchestrator(st, logger, ingest.Options{
		StabilityWindow: cfg.Ingest.StabilityWindow,
		MaxFileSize:     cfg.Ingest.MaxFileSize,
	})

	mt940Cfg := cfg.MT940.Resolved()
	mt940Format := ingest.NewMT940Format(st, logger, ingest.MT940Options{
		Layout:                       layoutOf(mt940Cfg),
		Tolerance:                    cfg.Tolerance(),
		MaxArchiveSize:               cfg.Ingest.MaxFileSize,
		QuarantineOnStatementFailure: mt940Cfg.QuarantineOnStatementFailure,
	})
	vanFormat := ingest.NewVANFormat(st, logger, layoutOf(cfg.VAN.Resolved()), nil)

	logger.Info("Container initialized successfully",
		logging.F("store_driver", cfg.Store.Driver),
		logging.F("mt940_inbox", mt940Cfg.InboxDir),
		logging.F("van_inbox", cfg.VAN.Resolved().InboxDir))

	return &Container{
		logger:  logger,
		config:  cfg,
		store:   st,
		service: ingest.NewService(orchestrator, st, mt940Format, vanFormat),
		mt940:   mt940Format,
		van:     vanFormat,
	}, nil
}

func openStore(ctx context.Context, driver, dsn string, logger logging.Logger) (store.Store, error) {
	switch driver {
	case DriverMemory:
		logger.Warn("Using in-memory store, import history is not persisted")
		return store.NewMemory(), nil
	case sqlstore.DriverSQLite:
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := fileutils.EnsureDirectoryExists(filepath.Dir(dsn)); err != nil {
				return nil, err
			}
		}
	}
	st, err := sqlstore.Open(ctx, driver, dsn, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

func layoutOf(f config.FormatConfig) fileutils.Layout {
	return fileutils.Layout{
		Inbox:      f.InboxDir,
		Processing: f.ProcessingDir,
		Archive:    f.ArchiveDir,
		Quarantine: f.QuarantineDir,
	}
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the persistence layer shared by both pipelines.
func (c *Container) GetStore() store.Store {
	return c.store
}

// GetService returns the ingestion facade used by the CLI, the HTTP triggers
// and the scheduler.
func (c *Container) GetService() *ingest.Service {
	return c.service
}

// GetMT940Format returns the MT940 pipeline.
func (c *Container) GetMT940Format() *ingest.MT940Format {
	return c.mt940
}

// GetVANFormat returns the VAN pipeline.
func (c *Container) GetVANFormat() *ingest.VANFormat {
	return c.van
}

// Close releases the store.
func (c *Container) Close() error {
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	c.logger.Info("Container closed")
	return nil
}
