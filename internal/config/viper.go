// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. INGEST_STORE_DSN.
const EnvPrefix = "INGEST"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Store struct {
		Driver string `mapstructure:"driver" yaml:"driver"`
		DSN    string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"store" yaml:"store"`

	Ingest struct {
		StabilityWindow  time.Duration `mapstructure:"stability_window" yaml:"stability_window"`
		MaxFileSize      int64         `mapstructure:"max_file_size" yaml:"max_file_size"`
		BalanceTolerance string        `mapstructure:"balance_tolerance" yaml:"balance_tolerance"`
	} `mapstructure:"ingest" yaml:"ingest"`

	MT940 FormatConfig `mapstructure:"mt940" yaml:"mt940"`
	VAN   FormatConfig `mapstructure:"van" yaml:"van"`

	Server struct {
		Addr         string        `mapstructure:"addr" yaml:"addr"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	} `mapstructure:"server" yaml:"server"`

	Schedule struct {
		Timezone string `mapstructure:"timezone" yaml:"timezone"`
		MT940    string `mapstructure:"mt940" yaml:"mt940"`
		VAN      string `mapstructure:"van" yaml:"van"`
	} `mapstructure:"schedule" yaml:"schedule"`
}

// FormatConfig holds the lifecycle directories of one inbox family. Any
// directory left empty is derived from BaseDir.
type FormatConfig struct {
	BaseDir       string `mapstructure:"base_dir" yaml:"base_dir"`
	InboxDir      string `mapstructure:"inbox_dir" yaml:"inbox_dir"`
	ProcessingDir string `mapstructure:"processing_dir" yaml:"processing_dir"`
	ArchiveDir    string `mapstructure:"archive_dir" yaml:"archive_dir"`
	QuarantineDir string `mapstructure:"quarantine_dir" yaml:"quarantine_dir"`

	// QuarantineOnStatementFailure routes a whole MT940 file to quarantine when
	// any statement in it fails to decode or persist. Ignored for VAN.
	QuarantineOnStatementFailure bool `mapstructure:"quarantine_on_statement_failure" yaml:"quarantine_on_statement_failure"`
}

// Resolved returns a copy with every empty directory filled in from BaseDir.
func (f FormatConfig) Resolved() FormatConfig {
	fill := func(dir, name string) string {
		if dir != "" {
			return dir
		}
		return filepath.Join(f.BaseDir, name)
	}
	f.InboxDir = fill(f.InboxDir, "inbox")
	f.ProcessingDir = fill(f.ProcessingDir, "processing")
	f.ArchiveDir = fill(f.ArchiveDir, "archive")
	f.QuarantineDir = fill(f.QuarantineDir, "quarantine")
	return f
}

// Tolerance returns the parsed balance tolerance. The value is checked by
// validateConfig, so a parse failure here only happens on hand-built configs.
func (c *Config) Tolerance() decimal.Decimal {
	d, err := decimal.NewFromString(c.Ingest.BalanceTolerance)
	if err != nil {
		return decimal.New(2, -2)
	}
	return d
}

// InitializeConfig loads configuration from defaults, an optional YAML file and
// the environment, in increasing order of precedence. An explicit configFile
// must exist; otherwise the usual search paths are tried and a missing file is
// not an error.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.reconciliation-service")
		v.AddConfigPath(".reconciliation-service")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.MT940 = config.MT940.Resolved()
	config.VAN = config.VAN.Resolved()

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "data/ingest.db")

	v.SetDefault("ingest.stability_window", 10*time.Second)
	v.SetDefault("ingest.max_file_size", int64(50<<20))
	v.SetDefault("ingest.balance_tolerance", "0.02")

	for _, format := range []string{"mt940", "van"} {
		v.SetDefault(format+".base_dir", filepath.Join("data", format))
		v.SetDefault(format+".inbox_dir", "")
		v.SetDefault(format+".processing_dir", "")
		v.SetDefault(format+".archive_dir", "")
		v.SetDefault(format+".quarantine_dir", "")
	}
	v.SetDefault("mt940.quarantine_on_statement_failure", true)
	v.SetDefault("van.quarantine_on_statement_failure", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Minute)

	v.SetDefault("schedule.timezone", "UTC")
	v.SetDefault("schedule.mt940", "")
	v.SetDefault("schedule.van", "")
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	switch config.Store.Driver {
	case "sqlite", "postgres":
		if config.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver %s", config.Store.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported store driver: %s (must be 'sqlite', 'postgres' or 'memory')", config.Store.Driver)
	}

	if config.Ingest.MaxFileSize <= 0 {
		return fmt.Errorf("ingest.max_file_size must be positive, got: %d", config.Ingest.MaxFileSize)
	}

	if config.Ingest.StabilityWindow < 0 {
		return fmt.Errorf("ingest.stability_window must not be negative, got: %s", config.Ingest.StabilityWindow)
	}

	tol, err := decimal.NewFromString(config.Ingest.BalanceTolerance)
	if err != nil || tol.IsNegative() {
		return fmt.Errorf("ingest.balance_tolerance must be a non-negative decimal, got: %q", config.Ingest.BalanceTolerance)
	}

	if _, err := time.LoadLocation(config.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid schedule.timezone %q: %w", config.Schedule.Timezone, err)
	}

	return nil
}

// DefaultConfig returns the configuration produced by defaults alone.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// Defaults always decode cleanly.
	_ = v.Unmarshal(&config)
	return &config
}

// WriteDefault writes the default configuration as YAML to path. An existing
// file is left untouched unless overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
