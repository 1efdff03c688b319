// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Scale bounds ratings and predictions.
	Scale Scale `json:"scale"`

	// Model contains the factor model hyperparameters.
	Model TrainParams `json:"model"`

	// TopN is the default list length for Recommend.
	TopN int `json:"top_n"`

	// MaxN caps the list length a caller may request.
	MaxN int `json:"max_n"`

	// SkipMalformed drops out-of-scale ratings instead of failing the build.
	SkipMalformed bool `json:"skip_malformed"`

	// StrictCatalog fails selection when a catalog item is unknown to the model
	// instead of skipping it.
	StrictCatalog bool `json:"strict_catalog"`

	// TrainTimeout bounds loading data for a training run.
	TrainTimeout time.Duration `json:"train_timeout"`

	// SnapshotName is the storage name for persisted models.
	SnapshotName string `json:"snapshot_name"`

	// RetainSnapshots is how many snapshot versions to keep on disk.
	RetainSnapshots int `json:"retain_snapshots"`

	// Cache contains response caching parameters.
	Cache CacheConfig `json:"cache"`
}

// CacheConfig controls the per-user response cache.
// Entries are dropped whenever a new model is published.
type CacheConfig struct {
	Enabled    bool          `json:"enabled"`
	TTL        time.Duration `json:"ttl"`
	MaxEntries int           `json:"max_entries"`
}

// TrainParams are the hyperparameters of the SGD factor model.
type TrainParams struct {
	// Factors is the latent dimensionality k.
	Factors int `json:"factors"`

	// Epochs is the fixed number of passes over the ratings.
	Epochs int `json:"epochs"`

	// LearningRate is the SGD step size.
	LearningRate float64 `json:"learning_rate"`

	// Regularization is the L2 penalty applied to biases and factors.
	Regularization float64 `json:"regularization"`

	// InitStdDev is the standard deviation of the initial factor values.
	InitStdDev float64 `json:"init_std_dev"`

	// Seed drives initialization and the per-epoch shuffle.
	Seed int64 `json:"seed"`

	// OnEpoch, when set, is called after each epoch with the epoch's training RMSE.
	OnEpoch func(epoch int, rmse float64) `json:"-"`
}

// DefaultTrainParams returns the conventional SVD hyperparameters.
func DefaultTrainParams() TrainParams {
	return TrainParams{
		Factors:        100,
		Epochs:         20,
		LearningRate:   0.005,
		Regularization: 0.02,
		InitStdDev:     0.1,
		Seed:           42,
	}
}

// Validate checks the hyperparameters for errors.
func (p *TrainParams) Validate() error {
	if p.Factors < 1 {
		return fmt.Errorf("model.factors must be positive, got %d", p.Factors)
	}
	if p.Epochs < 1 {
		return fmt.Errorf("model.epochs must be positive, got %d", p.Epochs)
	}
	if p.LearningRate <= 0 {
		return fmt.Errorf("model.learning_rate must be positive, got %f", p.LearningRate)
	}
	if p.Regularization < 0 {
		return fmt.Errorf("model.regularization must be non-negative, got %f", p.Regularization)
	}
	if p.InitStdDev < 0 {
		return fmt.Errorf("model.init_std_dev must be non-negative, got %f", p.InitStdDev)
	}
	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scale:           Scale{Min: 1, Max: 5},
		Model:           DefaultTrainParams(),
		TopN:            5,
		MaxN:            100,
		TrainTimeout:    10 * time.Minute,
		SnapshotName:    "svd",
		RetainSnapshots: 3,
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Scale.Min >= c.Scale.Max {
		return fmt.Errorf("scale.min must be below scale.max, got [%g, %g]", c.Scale.Min, c.Scale.Max)
	}
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if c.TopN < 1 {
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	}
	if c.MaxN < c.TopN {
		return fmt.Errorf("max_n must be >= top_n, got %d < %d", c.MaxN, c.TopN)
	}
	if c.TrainTimeout <= 0 {
		return fmt.Errorf("train_timeout must be positive, got %v", c.TrainTimeout)
	}
	if c.RetainSnapshots < 1 {
		return fmt.Errorf("retain_snapshots must be positive, got %d", c.RetainSnapshots)
	}
	if c.Cache.Enabled && (c.Cache.TTL <= 0 || c.Cache.MaxEntries < 1) {
		return fmt.Errorf("cache.ttl and cache.max_entries must be positive when caching is enabled")
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
