// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ratingrec/internal/metrics"
	"github.com/tomtom215/ratingrec/internal/recommend"
)

// Preparer produces the dataset the engine serves: the stored split if one
// exists, otherwise a fresh partition of the source that is then stored.
type Preparer struct {
	Provider       Provider
	Source         Source
	Partitioner    *Partitioner
	BuildIfMissing bool

	// Rebuild ignores any stored split, partitions the source and replaces
	// the stored split with the result. It requires a Source.
	Rebuild bool

	Logger zerolog.Logger
}

// Prepare loads or builds the dataset. The returned dataset has been validated.
func (p *Preparer) Prepare(ctx context.Context) (*recommend.Dataset, Report, error) {
	if p.Provider == nil {
		return nil, Report{}, errors.New("prepare: no dataset provider configured")
	}
	logger := p.Logger.With().Str("component", "dataset").Str("provider", p.Provider.Name()).Logger()

	if p.Rebuild {
		if p.Source == nil {
			return nil, Report{}, fmt.Errorf("rebuild requested without a source: %w", ErrDatasetUnavailable)
		}
		return p.build(ctx, logger, "Rebuilding split from source")
	}

	start := time.Now()
	ds, found, err := p.Provider.Load(ctx)
	metrics.RecordDatasetLoad(p.Provider.Name(), time.Since(start), err)
	if err != nil {
		return nil, Report{}, fmt.Errorf("load dataset: %w", err)
	}
	if found {
		if err := ds.Validate(); err != nil {
			return nil, Report{}, fmt.Errorf("stored dataset: %w", err)
		}
		report := Report{Loaded: true}
		fillReport(&report, ds)
		logger.Info().
			Int("train_users", report.TrainUsers).
			Int("test_users", report.TestUsers).
			Dur("duration", time.Since(start)).
			Msg("Loaded stored dataset")
		return ds, report, nil
	}

	if !p.BuildIfMissing || p.Source == nil {
		return nil, Report{}, ErrDatasetUnavailable
	}
	return p.build(ctx, logger, "No stored dataset, building split from source")
}

// build partitions the source, validates the result and saves it.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (p *Preparer) build(ctx context.Context, logger zerolog.Logger, reason string) (*recommend.Dataset, Report, error) {
	partitioner := p.Partitioner
	if partitioner == nil {
		partitioner = DefaultPartitioner()
	}
	logger.Info().
		Int64("seed", partitioner.Seed).
		Int("sample_users", partitioner.SampleUsers).
		Float64("test_probability", partitioner.TestProbability).
		Msg(reason)

	start := time.Now()
	ds, report, err := partitioner.Partition(ctx, p.Source)
	metrics.RecordDatasetLoad("build", time.Since(start), err)
	if err != nil {
		return nil, Report{}, err
	}
	if err := ds.Validate(); err != nil {
		return nil, Report{}, fmt.Errorf("built dataset: %w", err)
	}

	if err := p.Provider.Save(ctx, ds); err != nil {
		return nil, Report{}, fmt.Errorf("save dataset: %w", err)
	}
	logger.Info().
		Int("source_users", report.SourceUsers).
		Int("train_users", report.TrainUsers).
		Int("test_users", report.TestUsers).
		Int("train_ratings", report.TrainRatings).
		Int("test_ratings", report.TestRatings).
		Int("overlaps", report.Overlaps).
		Int("duplicates", report.Duplicates).
		Dur("duration", time.Since(start)).
		Msg("Built and saved dataset")
	return ds, report, nil
}

// LogProgress returns a NetflixSource progress callback that logs at every
// 10% of files, per phase.
func LogProgress(logger zerolog.Logger) func(phase string, done, total int) {
	return func(phase string, done, total int) {
		step := total / 10
		if step == 0 {
			step = 1
		}
		if done%step != 0 && done != total {
			return
		}
		logger.Info().
			Str("phase", phase).
			Int("files", done).
			Int("total", total).
			Float64("percent", float64(done)*100/float64(total)).
			Msg("Dataset scan progress")
	}
}
