// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package recommend

import (
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Neighbors contains neighbor selection parameters.
	Neighbors NeighborConfig `json:"neighbors"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains response caching parameters.
	Cache CacheConfig `json:"cache"`
}

// NeighborConfig contains neighbor selection parameters.
type NeighborConfig struct {
	// K is the number of most similar users kept as neighbors.
	// Default: 15.
	K int `json:"k"`

	// MinSimilarity is the exclusive lower bound on Pearson similarity.
	// Default: 0.5.
	MinSimilarity float64 `json:"min_similarity"`

	// Workers is the number of shards for the similarity scan.
	// Zero uses GOMAXPROCS.
	// Default: 0.
	Workers int `json:"workers"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// NItems is the default number of recommended items.
	// Default: 20.
	NItems int `json:"n_items"`

	// MaxK is the maximum neighbor count a request may ask for.
	// Default: 200.
	MaxK int `json:"max_k"`

	// MaxNItems is the maximum list length a request may ask for.
	// Default: 500.
	MaxNItems int `json:"max_n_items"`
}

// CacheConfig contains response caching parameters.
type CacheConfig struct {
	// Enabled controls whether caching is active.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 5m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached responses.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns a Config with the engine's defaults.
func DefaultConfig() *Config {
	return &Config{
		Neighbors: NeighborConfig{
			K:             15,
			MinSimilarity: DefaultMinSimilarity,
			Workers:       0,
		},
		Limits: LimitsConfig{
			NItems:    20,
			MaxK:      200,
			MaxNItems: 500,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Neighbors.K < 1 {
		return fmt.Errorf("neighbors.k must be positive, got %d", c.Neighbors.K)
	}
	if math.IsNaN(c.Neighbors.MinSimilarity) || c.Neighbors.MinSimilarity < -1 || c.Neighbors.MinSimilarity > 1 {
		return fmt.Errorf("neighbors.min_similarity must be in [-1, 1], got %f", c.Neighbors.MinSimilarity)
	}
	if c.Neighbors.Workers < 0 {
		return fmt.Errorf("neighbors.workers must be non-negative, got %d", c.Neighbors.Workers)
	}

	if c.Limits.NItems < 1 {
		return fmt.Errorf("limits.n_items must be positive, got %d", c.Limits.NItems)
	}
	if c.Limits.MaxK < c.Neighbors.K {
		return fmt.Errorf("limits.max_k must be >= neighbors.k, got %d < %d", c.Limits.MaxK, c.Neighbors.K)
	}
	if c.Limits.MaxNItems < c.Limits.NItems {
		return fmt.Errorf("limits.max_n_items must be >= limits.n_items, got %d < %d", c.Limits.MaxNItems, c.Limits.NItems)
	}

	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
		}
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs hold value types only.
	return &Config{
		Neighbors: c.Neighbors,
		Limits:    c.Limits,
		Cache:     c.Cache,
	}
}

// MarshalJSON renders durations as strings.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	type cacheJSON struct {
		Enabled    bool   `json:"enabled"`
		TTL        string `json:"ttl"`
		MaxEntries int    `json:"max_entries"`
	}
	return json.Marshal(&struct {
		*Alias
		Cache cacheJSON `json:"cache"`
	}{
		Alias: (*Alias)(c),
		Cache: cacheJSON{
			Enabled:    c.Cache.Enabled,
			TTL:        c.Cache.TTL.String(),
			MaxEntries: c.Cache.MaxEntries,
		},
	})
}
