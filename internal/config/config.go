// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/stellara/config.yaml",
	"/etc/stellara/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces all environment overrides, e.g.
// STELLARA_SERVER_PORT -> server.port.
const envPrefix = "STELLARA_"

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Database DatabaseConfig `koanf:"database"`
	Models   ModelsConfig   `koanf:"models"`
	Training TrainingConfig `koanf:"training"`
	Features FeaturesConfig `koanf:"features"`
	Ingest   IngestConfig   `koanf:"ingest"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig holds DuckDB event store settings.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory" validate:"required"`
	Threads   int    `koanf:"threads" validate:"gte=0"`
}

// ModelsConfig holds artifact persistence and serving settings.
type ModelsConfig struct {
	Dir             string `koanf:"dir" validate:"required"`
	KeepGenerations int    `koanf:"keep_generations" validate:"gte=1"`
	DefaultK        int    `koanf:"default_k" validate:"gte=1"`
	MaxK            int    `koanf:"max_k" validate:"gte=1"`
}

// TrainingConfig drives the retrain schedule and trainer parameters.
type TrainingConfig struct {
	// IntervalHours is the retrain cadence. Fractional values are
	// supported for sub-hour schedules in test deployments.
	IntervalHours float64       `koanf:"interval_hours" validate:"gt=0"`
	OnStartup     bool          `koanf:"on_startup"`
	Timeout       time.Duration `koanf:"timeout" validate:"gt=0"`
	SplitRatio    float64       `koanf:"split_ratio" validate:"gt=0,lt=1"`
	Seed          int64         `koanf:"seed"`
	LearningRate  float64       `koanf:"learning_rate" validate:"gt=0"`
	Epochs        int           `koanf:"epochs" validate:"gte=1"`
	HistorySize   int           `koanf:"history_size" validate:"gte=1"`
}

// Interval returns the retrain cadence as a duration.
func (t TrainingConfig) Interval() time.Duration {
	return time.Duration(t.IntervalHours * float64(time.Hour))
}

// FeaturesConfig controls dataset construction.
type FeaturesConfig struct {
	// EngagementThreshold is the session duration in seconds above
	// which a session is labeled engaged.
	EngagementThreshold float64 `koanf:"engagement_threshold" validate:"gt=0"`
	SeedIfEmpty         bool    `koanf:"seed_if_empty"`
	SyntheticEvents     int     `koanf:"synthetic_events" validate:"gte=0"`
}

// IngestConfig controls the event ingest pipeline.
type IngestConfig struct {
	BatchSize     int           `koanf:"batch_size" validate:"gte=1"`
	FlushInterval time.Duration `koanf:"flush_interval" validate:"gt=0"`
	RatePerSecond int           `koanf:"rate_per_second" validate:"gte=0"`
	// NATSURL selects the NATS JetStream transport when set; the
	// default empty value uses the in-process channel transport.
	NATSURL string `koanf:"nats_url"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8090,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimitReqs:   100,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: DatabaseConfig{
			Path:      "/data/stellara.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Models: ModelsConfig{
			Dir:             "/data/models",
			KeepGenerations: 5,
			DefaultK:        5,
			MaxK:            100,
		},
		Training: TrainingConfig{
			IntervalHours: 24,
			OnStartup:     true,
			Timeout:       30 * time.Minute,
			SplitRatio:    0.8,
			Seed:          42,
			LearningRate:  0.1,
			Epochs:        200,
			HistorySize:   32,
		},
		Features: FeaturesConfig{
			EngagementThreshold: 300,
			SeedIfEmpty:         false,
			SyntheticEvents:     1000,
		},
		Ingest: IngestConfig{
			BatchSize:     500,
			FlushInterval: 5 * time.Second,
			RatePerSecond: 0, // Unlimited
			NATSURL:       "",
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML (path argument, CONFIG_PATH, or search paths)
//  3. Environment variables: STELLARA_ prefixed, highest priority
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// STELLARA_TRAINING_INTERVAL_HOURS -> training.interval_hours
	envProvider := env.Provider(envPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks field constraints via struct tags.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("invalid value for %s (constraint %s)", first.Namespace(), first.Tag())
		}
		return err
	}
	if c.Models.DefaultK > c.Models.MaxK {
		return fmt.Errorf("models.default_k (%d) must not exceed models.max_k (%d)", c.Models.DefaultK, c.Models.MaxK)
	}
	return nil
}

// findConfigFile searches for a config file, environment variable first.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envSectionPrefixes maps the first env token to a config section so the
// remaining tokens keep their underscores:
// STELLARA_TRAINING_INTERVAL_HOURS -> training.interval_hours.
var envSectionPrefixes = []string{
	"server", "logging", "database", "models", "training", "features", "ingest",
}

// envTransform maps STELLARA_SECTION_FIELD_NAME to section.field_name.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	for _, section := range envSectionPrefixes {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return ""
}

// sliceConfigPaths names config paths parsed as comma-separated slices
// when supplied through environment variables.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated env values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}
