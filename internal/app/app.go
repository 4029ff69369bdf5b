// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

// Package app assembles the engine and dataset pipeline from configuration.
// Both the server and the CLI build their components here.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ratingrec/internal/config"
	"github.com/tomtom215/ratingrec/internal/dataset"
	"github.com/tomtom215/ratingrec/internal/recommend"
)

// Components holds the configured engine and dataset pipeline.
type Components struct {
	Engine   *recommend.Engine
	Provider *dataset.ResilientProvider
	Preparer *dataset.Preparer
}

// Build opens the configured provider and creates the engine and preparer.
// The caller must Close the returned Components.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Build(cfg *config.Config, logger zerolog.Logger) (*Components, error) {
	engine, err := recommend.NewEngine(cfg.EngineConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	inner, err := dataset.OpenProvider(cfg.ProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("open dataset provider: %w", err)
	}
	provider := dataset.NewResilientProvider(inner, cfg.BreakerConfig(), logger)

	preparer := &dataset.Preparer{
		Provider:       provider,
		Partitioner:    cfg.Partitioner(),
		BuildIfMissing: cfg.Dataset.BuildIfMissing,
		Logger:         logger,
	}
	// Source returns a typed nil when unset; keep the interface nil too.
	if src := cfg.Source(); src != nil {
		src.Progress = dataset.LogProgress(logger)
		preparer.Source = src
	}

	logger.Info().
		Str("provider", provider.Name()).
		Bool("build_if_missing", preparer.BuildIfMissing).
		Str("source_dir", cfg.Dataset.SourceDir).
		Int("k", cfg.Recommend.K).
		Float64("min_similarity", cfg.Recommend.MinSimilarity).
		Int("n_items", cfg.Recommend.NItems).
		Msg("components built")

	return &Components{Engine: engine, Provider: provider, Preparer: preparer}, nil
}

// Close releases the dataset provider.
func (c *Components) Close() error {
	if c == nil || c.Provider == nil {
		return nil
	}
	return c.Provider.Close()
}
