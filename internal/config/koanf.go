// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/filmrec/internal/recommend"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/filmrec/config.yaml",
	"/etc/filmrec/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	params := recommend.DefaultTrainParams()
	engine := recommend.DefaultConfig()

	return &Config{
		Database: DatabaseConfig{
			Path:                   "/data/filmrec.duckdb",
			MaxMemory:              "1GB",
			Threads:                0,
			PreserveInsertionOrder: true,
		},
		Recommend: RecommendConfig{
			ScaleMin:        engine.Scale.Min,
			ScaleMax:        engine.Scale.Max,
			Factors:         params.Factors,
			Epochs:          params.Epochs,
			LearningRate:    params.LearningRate,
			Regularization:  params.Regularization,
			InitStdDev:      params.InitStdDev,
			Seed:            params.Seed,
			TopN:            engine.TopN,
			MaxN:            engine.MaxN,
			TrainTimeout:    engine.TrainTimeout,
			CacheEnabled:    engine.Cache.Enabled,
			CacheTTL:        engine.Cache.TTL,
			CacheMaxEntries: engine.Cache.MaxEntries,
		},
		Training: TrainingConfig{
			OnStartup:          true,
			Interval:           24 * time.Hour,
			ModelDir:           "/data/models",
			SnapshotName:       engine.SnapshotName,
			RetainSnapshots:    engine.RetainSnapshots,
			BreakerMaxFailures: 3,
			BreakerTimeout:     5 * time.Minute,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3858,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		API: APIConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			TrainRateWindow: time.Minute,
			TrainBurst:      1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		CLI: CLIConfig{
			UserID: 1,
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom is Load with an explicit config file path; an empty path skips the
// file layer.
func LoadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
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

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings is the environment allowlist. Unlisted variables are ignored.
var envMappings = map[string]string{
	// Database
	"duckdb_path":         "database.path",
	"duckdb_max_memory":   "database.max_memory",
	"duckdb_threads":      "database.threads",
	"duckdb_insert_order": "database.preserve_insertion_order",

	// Ingest
	"movies_csv":  "ingest.movies_csv",
	"ratings_csv": "ingest.ratings_csv",

	// Model
	"rating_scale_min":    "recommend.scale_min",
	"rating_scale_max":    "recommend.scale_max",
	"factors":             "recommend.factors",
	"epochs":              "recommend.epochs",
	"learning_rate":       "recommend.learning_rate",
	"regularization":      "recommend.regularization",
	"init_std_dev":        "recommend.init_std_dev",
	"seed":                "recommend.seed",
	"top_n":               "recommend.top_n",
	"max_n":               "recommend.max_n",
	"skip_malformed":      "recommend.skip_malformed",
	"strict_catalog":      "recommend.strict_catalog",
	"train_timeout":       "recommend.train_timeout",
	"recommend_cache":     "recommend.cache_enabled",
	"recommend_cache_ttl": "recommend.cache_ttl",

	// Training schedule
	"train_on_startup":       "training.on_startup",
	"train_interval":         "training.interval",
	"model_dir":              "training.model_dir",
	"retain_snapshots":       "training.retain_snapshots",
	"train_breaker_failures": "training.breaker_max_failures",
	"train_breaker_timeout":  "training.breaker_timeout",

	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// API
	"cors_origins":        "api.cors_origins",
	"rate_limit_requests": "api.rate_limit_reqs",
	"rate_limit_window":   "api.rate_limit_window",
	"disable_rate_limit":  "api.rate_limit_disabled",
	"train_rate_window":   "api.train_rate_window",
	"train_burst":         "api.train_burst",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// CLI
	"recommend_user_id": "cli.user_id",
}

// envTransformFunc maps environment names to koanf paths, e.g.
// DUCKDB_PATH -> database.path and EPOCHS -> recommend.epochs.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
