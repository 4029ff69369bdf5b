// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

// Package recommend implements user-based collaborative filtering over an
// explicit 1-5 rating matrix.
//
// # Pipeline
//
//   - Pearson: correlation of two users over their co-rated items
//   - GetNeighbors: the k most similar users above a minimum similarity
//   - Aggregate: mean similarity-weighted rating of every unseen item
//     across the neighbors, ranked and truncated
//
// GetRecommendations chains the two steps. Evaluate measures top-N precision
// and recall against a held-out test split.
//
// # Determinism
//
// Neighbor ties are broken by user ID and candidate ties by item ID, so the
// same dataset and parameters always produce the same lists, regardless of
// how many workers scan for neighbors.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	if err := engine.SetDataset(ds); err != nil {
//	    return err
//	}
//
//	resp, err := engine.Recommend(ctx, recommend.Request{UserID: "301766"})
//
// # Thread Safety
//
// The Engine is safe for concurrent use. Installed datasets are read-only;
// SetDataset swaps in a new snapshot atomically.
package recommend
