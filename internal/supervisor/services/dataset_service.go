// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

// Package services adapts ratingrec components to suture.Service.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ratingrec/internal/dataset"
	"github.com/tomtom215/ratingrec/internal/recommend"
)

// DatasetPreparer produces a train/test split. Satisfied by *dataset.Preparer.
type DatasetPreparer interface {
	Prepare(ctx context.Context) (*recommend.Dataset, dataset.Report, error)
}

// DatasetInstaller accepts a prepared split. Satisfied by *recommend.Engine.
type DatasetInstaller interface {
	SetDataset(ds *recommend.Dataset) error
}

// DatasetService loads the dataset into the engine when it starts and then
// idles, serving Reload requests, until its context is cancelled.
//
// A provider failure at start is returned so the supervisor retries with
// backoff. When no dataset exists and none can be built the service stays
// up without one; the API reports 503 until a Reload succeeds.
type DatasetService struct {
	preparer DatasetPreparer
	engine   DatasetInstaller
	logger   zerolog.Logger

	mu     sync.Mutex // serializes Prepare+install
	loaded atomic.Bool
}

// NewDatasetService creates the data-layer service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewDatasetService(preparer DatasetPreparer, engine DatasetInstaller, logger zerolog.Logger) *DatasetService {
	return &DatasetService{
		preparer: preparer,
		engine:   engine,
		logger:   logger.With().Str("service", "dataset").Logger(),
	}
}

// Serve implements suture.Service.
func (s *DatasetService) Serve(ctx context.Context) error {
	if !s.loaded.Load() {
		if _, err := s.Reload(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !errors.Is(err, dataset.ErrDatasetUnavailable) {
				return err
			}
			s.logger.Error().Err(err).Msg("no dataset available; serving without one until reload")
		}
	}

	<-ctx.Done()
	return ctx.Err()
}

// Reload runs the preparer and installs the result. Concurrent calls run
// one at a time.
func (s *DatasetService) Reload(ctx context.Context) (dataset.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, report, err := s.preparer.Prepare(ctx)
	if err != nil {
		return report, fmt.Errorf("prepare dataset: %w", err)
	}
	if err := s.engine.SetDataset(ds); err != nil {
		return report, fmt.Errorf("install dataset: %w", err)
	}
	s.loaded.Store(true)

	s.logger.Info().
		Bool("from_store", report.Loaded).
		Int("train_users", report.TrainUsers).
		Int("test_users", report.TestUsers).
		Int("overlaps", report.Overlaps).
		Msg("dataset ready")
	return report, nil
}

// Loaded reports whether a dataset has been installed.
func (s *DatasetService) Loaded() bool {
	return s.loaded.Load()
}

// String names the service in supervisor events.
func (s *DatasetService) String() string {
	return "dataset-service"
}
