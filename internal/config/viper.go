// Package config provides Viper-based hierarchical configuration management
// for the reconciliation pipeline: defaults, then an optional config file,
// then RECONCILE_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Reconcile struct {
		// Tolerance is the absolute commission difference accepted before a
		// finding is raised.
		Tolerance float64 `mapstructure:"tolerance" yaml:"tolerance"`
		// HighImpactThreshold separates medium from high severity findings.
		HighImpactThreshold float64 `mapstructure:"high_impact_threshold" yaml:"high_impact_threshold"`
		HomeCurrency        string  `mapstructure:"home_currency" yaml:"home_currency"`
		// CompanySuffixes overrides the legal-entity suffixes stripped during
		// company-name matching. Empty keeps the built-in set.
		CompanySuffixes []string `mapstructure:"company_suffixes" yaml:"company_suffixes"`
		// CentrallyManagedMarkers overrides the deal-name markers that route
		// transactions to the central process. Empty keeps the built-in set.
		CentrallyManagedMarkers []string `mapstructure:"centrally_managed_markers" yaml:"centrally_managed_markers"`
	} `mapstructure:"reconcile" yaml:"reconcile"`

	Plans struct {
		// File is an optional plans YAML overriding the built-in plan years.
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"plans" yaml:"plans"`

	Output struct {
		// Format selects the summary rendering: text or json.
		Format string `mapstructure:"format" yaml:"format"`
		// DiscrepancyCSV is the path the discrepancy export is written to;
		// empty disables the export.
		DiscrepancyCSV string `mapstructure:"discrepancy_csv" yaml:"discrepancy_csv"`
	} `mapstructure:"output" yaml:"output"`
}

// Tolerance returns the configured tolerance as a decimal.
func (c *Config) Tolerance() decimal.Decimal {
	return decimal.NewFromFloat(c.Reconcile.Tolerance)
}

// HighImpactThreshold returns the configured severity threshold as a decimal.
func (c *Config) HighImpactThreshold() decimal.Decimal {
	return decimal.NewFromFloat(c.Reconcile.HighImpactThreshold)
}

// InitializeConfig initializes Viper configuration with hierarchical loading.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.commission-reconcile")
	v.AddConfigPath(".commission-reconcile")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RECONCILE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Continue with defaults and env vars, the file is optional.
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("reconcile.tolerance", 1.0)
	v.SetDefault("reconcile.high_impact_threshold", 100.0)
	v.SetDefault("reconcile.home_currency", "EUR")
	v.SetDefault("reconcile.company_suffixes", []string{})
	v.SetDefault("reconcile.centrally_managed_markers", []string{})

	v.SetDefault("plans.file", "")

	v.SetDefault("output.format", "text")
	v.SetDefault("output.discrepancy_csv", "")
}

// validateConfig validates the configuration values.
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Reconcile.Tolerance < 0 {
		return fmt.Errorf("reconcile.tolerance must not be negative, got: %f", config.Reconcile.Tolerance)
	}

	if config.Reconcile.HighImpactThreshold < 0 {
		return fmt.Errorf("reconcile.high_impact_threshold must not be negative, got: %f", config.Reconcile.HighImpactThreshold)
	}

	if len(config.Reconcile.HomeCurrency) != 3 {
		return fmt.Errorf("reconcile.home_currency must be a 3-letter code, got: %s", config.Reconcile.HomeCurrency)
	}

	if config.Output.Format != "text" && config.Output.Format != "json" {
		return fmt.Errorf("invalid output format: %s (must be 'text' or 'json')", config.Output.Format)
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
