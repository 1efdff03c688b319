// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package config

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateTraining(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if (c.Ingest.MoviesCSV == "") != (c.Ingest.RatingsCSV == "") {
		return fmt.Errorf("MOVIES_CSV and RATINGS_CSV must be set together")
	}
	// The engine owns the detailed hyperparameter rules.
	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}

func (c *Config) validateTraining() error {
	t := c.Training
	if t.Interval < 0 {
		return fmt.Errorf("TRAIN_INTERVAL must be non-negative, got %v", t.Interval)
	}
	if t.SnapshotName == "" || strings.ContainsAny(t.SnapshotName, `/\`) {
		return fmt.Errorf("training.snapshot_name %q is not a valid file name", t.SnapshotName)
	}
	if t.BreakerMaxFailures == 0 {
		return fmt.Errorf("TRAIN_BREAKER_FAILURES must be positive")
	}
	if t.BreakerTimeout <= 0 {
		return fmt.Errorf("TRAIN_BREAKER_TIMEOUT must be positive, got %v", t.BreakerTimeout)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive, got %v", c.Server.ShutdownTimeout)
	}
	return nil
}

func (c *Config) validateAPI() error {
	a := c.API
	if !a.RateLimitDisabled && (a.RateLimitReqs < 1 || a.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive unless DISABLE_RATE_LIMIT is set")
	}
	if a.TrainRateWindow <= 0 || a.TrainBurst < 1 {
		return fmt.Errorf("TRAIN_RATE_WINDOW and TRAIN_BURST must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
