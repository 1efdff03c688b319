// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

// Package config loads Filmrec configuration.
//
// Loading is layered with koanf v2, later layers overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file: $CONFIG_PATH, ./config.yaml or /etc/filmrec/config.yaml
//  3. Environment variables from an explicit allowlist (see envMappings)
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("invalid configuration")
//	}
//	db, err := database.New(&cfg.Database)
package config

import (
	"time"

	"github.com/tomtom215/filmrec/internal/recommend"
)

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Recommend RecommendConfig `koanf:"recommend"`
	Training  TrainingConfig  `koanf:"training"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
	CLI       CLIConfig       `koanf:"cli"`
}

// DatabaseConfig holds DuckDB settings. An empty Path opens an in-memory database.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`                  // 0 = NumCPU
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"` // DuckDB default is true
}

// IngestConfig points at the MovieLens-style CSV inputs. Ingest runs at
// startup only when both paths are set.
type IngestConfig struct {
	MoviesCSV  string `koanf:"movies_csv"`
	RatingsCSV string `koanf:"ratings_csv"`
}

// Enabled reports whether both CSV inputs are configured.
func (c IngestConfig) Enabled() bool {
	return c.MoviesCSV != "" && c.RatingsCSV != ""
}

// RecommendConfig holds the model hyperparameters and serving limits.
type RecommendConfig struct {
	ScaleMin       float64 `koanf:"scale_min"`
	ScaleMax       float64 `koanf:"scale_max"`
	Factors        int     `koanf:"factors"`
	Epochs         int     `koanf:"epochs"`
	LearningRate   float64 `koanf:"learning_rate"`
	Regularization float64 `koanf:"regularization"`
	InitStdDev     float64 `koanf:"init_std_dev"`
	Seed           int64   `koanf:"seed"`

	TopN          int           `koanf:"top_n"`
	MaxN          int           `koanf:"max_n"`
	SkipMalformed bool          `koanf:"skip_malformed"`
	StrictCatalog bool          `koanf:"strict_catalog"`
	TrainTimeout  time.Duration `koanf:"train_timeout"`

	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries"`
}

// TrainingConfig controls when the server retrains and where snapshots live.
type TrainingConfig struct {
	OnStartup bool          `koanf:"on_startup"`
	Interval  time.Duration `koanf:"interval"` // 0 disables periodic retraining

	ModelDir        string `koanf:"model_dir"` // empty disables snapshots
	SnapshotName    string `koanf:"snapshot_name"`
	RetainSnapshots int    `koanf:"retain_snapshots"`

	// Circuit breaker around training runs.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// APIConfig holds HTTP API policy.
type APIConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// Manual retrain requests allowed per TrainRateWindow, with burst TrainBurst.
	TrainRateWindow time.Duration `koanf:"train_rate_window"`
	TrainBurst      int           `koanf:"train_burst"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	Caller bool `koanf:"caller"`
}

// CLIConfig holds the one-shot command defaults.
type CLIConfig struct {
	UserID int64 `koanf:"user_id"`
}

// EngineConfig converts the recommend settings into an engine configuration.
func (c *Config) EngineConfig() *recommend.Config {
	r := c.Recommend
	return &recommend.Config{
		Scale: recommend.Scale{Min: r.ScaleMin, Max: r.ScaleMax},
		Model: recommend.TrainParams{
			Factors:        r.Factors,
			Epochs:         r.Epochs,
			LearningRate:   r.LearningRate,
			Regularization: r.Regularization,
			InitStdDev:     r.InitStdDev,
			Seed:           r.Seed,
		},
		TopN:            r.TopN,
		MaxN:            r.MaxN,
		SkipMalformed:   r.SkipMalformed,
		StrictCatalog:   r.StrictCatalog,
		TrainTimeout:    r.TrainTimeout,
		SnapshotName:    c.Training.SnapshotName,
		RetainSnapshots: c.Training.RetainSnapshots,
		Cache: recommend.CacheConfig{
			Enabled:    r.CacheEnabled,
			TTL:        r.CacheTTL,
			MaxEntries: r.CacheMaxEntries,
		},
	}
}
