// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

// Package dataset prepares and persists the train/test split served by the
// recommendation engine.
//
// A Preparer first asks its Provider for a stored split. When none exists it
// samples users from a Source (normally a NetflixSource directory of
// mv_<movie>.txt files), partitions their ratings with a seeded Partitioner
// and stores the result.
//
// Providers:
//
//   - JSONProvider: train.json and test.json in a directory
//   - BadgerProvider: embedded BadgerDB key/value store
//   - DuckDBProvider: embedded DuckDB ratings table
//   - ResilientProvider: circuit breaker around any of the above
package dataset
