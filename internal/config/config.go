// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

// Package config loads ratingrec configuration.
//
// Values are layered, each layer overriding the previous one:
//
//  1. built-in defaults
//  2. a YAML file (CONFIG_PATH, or the first of DefaultConfigPaths that exists)
//  3. RATINGREC_* environment variables
//
// Environment variable names map onto keys by dropping the prefix, lowering
// the case and splitting the section from the key at the first underscore:
// RATINGREC_RECOMMEND_MIN_SIMILARITY sets recommend.min_similarity.
package config

import (
	"time"

	"github.com/tomtom215/ratingrec/internal/dataset"
	"github.com/tomtom215/ratingrec/internal/logging"
	"github.com/tomtom215/ratingrec/internal/recommend"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Recommend RecommendConfig `koanf:"recommend"`
	Dataset   DatasetConfig   `koanf:"dataset"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"gte=1,lte=65535"`
	RequestTimeout    time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gte=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// RecommendConfig configures the recommendation engine.
type RecommendConfig struct {
	K             int           `koanf:"k" validate:"gte=1"`
	MinSimilarity float64       `koanf:"min_similarity" validate:"gte=-1,lte=1"`
	NItems        int           `koanf:"n_items" validate:"gte=1"`
	Workers       int           `koanf:"workers" validate:"gte=0"`
	CacheEnabled  bool          `koanf:"cache_enabled"`
	CacheTTL      time.Duration `koanf:"cache_ttl" validate:"gte=0"`
	CacheCapacity int           `koanf:"cache_capacity" validate:"gte=0"`
	MaxK          int           `koanf:"max_k" validate:"gte=1"`
	MaxNItems     int           `koanf:"max_n_items" validate:"gte=1"`
}

// DatasetConfig configures where the train/test split comes from.
type DatasetConfig struct {
	Provider   string `koanf:"provider" validate:"oneof=json badger duckdb"`
	JSONDir    string `koanf:"json_dir"`
	BadgerDir  string `koanf:"badger_dir"`
	DuckDBPath string `koanf:"duckdb_path"`

	// SourceDir holds the mv_<movie>.txt files used when no split is stored.
	SourceDir      string  `koanf:"source_dir"`
	MaxFiles       int     `koanf:"max_files" validate:"gte=0"`
	SourceWorkers  int     `koanf:"source_workers" validate:"gte=0"`
	Seed           int64   `koanf:"seed"`
	SampleUsers    int     `koanf:"sample_users" validate:"gte=0"`
	TestProb       float64 `koanf:"test_probability" validate:"gte=0,lte=1"`
	BuildIfMissing bool    `koanf:"build_if_missing"`

	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold" validate:"gte=1"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
	BreakerInterval         time.Duration `koanf:"breaker_interval" validate:"gte=0"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

func defaultConfig() *Config {
	engine := recommend.DefaultConfig()
	breaker := dataset.DefaultBreakerConfig()
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			RequestTimeout:    10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Recommend: RecommendConfig{
			K:             engine.Neighbors.K,
			MinSimilarity: engine.Neighbors.MinSimilarity,
			NItems:        engine.Limits.NItems,
			Workers:       engine.Neighbors.Workers,
			CacheEnabled:  engine.Cache.Enabled,
			CacheTTL:      engine.Cache.TTL,
			CacheCapacity: engine.Cache.MaxEntries,
			MaxK:          engine.Limits.MaxK,
			MaxNItems:     engine.Limits.MaxNItems,
		},
		Dataset: DatasetConfig{
			Provider:                string(dataset.KindJSON),
			JSONDir:                 "res",
			BadgerDir:               "data/badger",
			DuckDBPath:              "data/ratings.duckdb",
			SourceDir:               "training_set",
			MaxFiles:                17770,
			Seed:                    dataset.DefaultSeed,
			SampleUsers:             dataset.DefaultSampleUsers,
			TestProb:                dataset.DefaultTestProbability,
			BuildIfMissing:          true,
			BreakerFailureThreshold: breaker.FailureThreshold,
			BreakerTimeout:          breaker.Timeout,
			BreakerInterval:         breaker.Interval,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// EngineConfig converts the recommend section to an engine configuration.
func (c *Config) EngineConfig() *recommend.Config {
	return &recommend.Config{
		Neighbors: recommend.NeighborConfig{
			K:             c.Recommend.K,
			MinSimilarity: c.Recommend.MinSimilarity,
			Workers:       c.Recommend.Workers,
		},
		Limits: recommend.LimitsConfig{
			NItems:    c.Recommend.NItems,
			MaxK:      c.Recommend.MaxK,
			MaxNItems: c.Recommend.MaxNItems,
		},
		Cache: recommend.CacheConfig{
			Enabled:    c.Recommend.CacheEnabled,
			TTL:        c.Recommend.CacheTTL,
			MaxEntries: c.Recommend.CacheCapacity,
		},
	}
}

// ProviderConfig returns the dataset provider settings.
func (c *Config) ProviderConfig() dataset.ProviderConfig {
	return dataset.ProviderConfig{
		Kind:       dataset.Kind(c.Dataset.Provider),
		JSONDir:    c.Dataset.JSONDir,
		BadgerDir:  c.Dataset.BadgerDir,
		DuckDBPath: c.Dataset.DuckDBPath,
	}
}

// BreakerConfig returns the provider circuit breaker settings.
func (c *Config) BreakerConfig() dataset.BreakerConfig {
	cfg := dataset.DefaultBreakerConfig()
	cfg.FailureThreshold = c.Dataset.BreakerFailureThreshold
	cfg.Timeout = c.Dataset.BreakerTimeout
	cfg.Interval = c.Dataset.BreakerInterval
	return cfg
}

// Partitioner returns the split parameters.
func (c *Config) Partitioner() *dataset.Partitioner {
	return &dataset.Partitioner{
		Seed:            c.Dataset.Seed,
		SampleUsers:     c.Dataset.SampleUsers,
		TestProbability: c.Dataset.TestProb,
	}
}

// Source returns the raw rating source, or nil when no source directory is set.
func (c *Config) Source() *dataset.NetflixSource {
	if c.Dataset.SourceDir == "" {
		return nil
	}
	return &dataset.NetflixSource{
		Dir:      c.Dataset.SourceDir,
		MaxFiles: c.Dataset.MaxFiles,
		Workers:  c.Dataset.SourceWorkers,
	}
}

// LoggerConfig returns the logger settings.
func (c *Config) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}
