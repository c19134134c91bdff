// Package root contains the root command for the application
package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rahulcharvekar/reconciliation-service/internal/config"
	"github.com/rahulcharvekar/reconciliation-service/internal/container"
	"github.com/rahulcharvekar/reconciliation-service/internal/logging"
)

// SkipContainer is the command annotation that disables dependency wiring,
// for commands that must work without a valid configuration.
const SkipContainer = "skip-container"

var (
	// ConfigFile is the --config flag.
	ConfigFile string
	// LogLevel and LogFormat override the configured logging when set.
	LogLevel  string
	LogFormat string

	appContainer *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "reconciliation-service",
		Short: "Ingests MT940 bank statements and VAN credit feeds into the reconciliation store.",
		Long: `reconciliation-service watches inbox directories for SWIFT MT940 statements
and virtual account (VAN) CSV feeds, validates them and records every import
run, statement and rejected record in the database.

Files move from the inbox through processing to a dated archive, or to
quarantine when they cannot be processed.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appContainer == nil {
				return
			}
			if err := appContainer.Close(); err != nil {
				appContainer.GetLogger().WithError(err).Warn("Failed to close container")
			}
			appContainer = nil
		},
	}
)

// Init initializes the root command flags.
func Init() {
	Cmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", "", "Config file (default searches ./config.yaml and $HOME/.reconciliation-service)")
	Cmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	Cmd.PersistentFlags().StringVar(&LogFormat, "log-format", "", "Log format: text or json")
}

func setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[SkipContainer] != "" {
		return nil
	}
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	c, err := container.NewContainer(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	appContainer = c
	return nil
}

// LoadConfig reads the configuration named by the flags and applies the
// logging overrides.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.InitializeConfig(ConfigFile)
	if err != nil {
		return nil, err
	}
	if LogLevel != "" {
		cfg.Log.Level = LogLevel
	}
	if LogFormat != "" {
		cfg.Log.Format = LogFormat
	}
	return cfg, nil
}

// GetContainer returns the container built for the running command, or nil
// for commands annotated with SkipContainer.
func GetContainer() *container.Container {
	return appContainer
}

// GetLogger returns the container's logger, falling back to a default one.
func GetLogger() logging.Logger {
	if appContainer != nil {
		return appContainer.GetLogger()
	}
	return logging.NewLogrusAdapter("info", "text")
}
