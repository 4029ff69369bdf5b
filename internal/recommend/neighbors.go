// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package recommend

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// DefaultMinSimilarity is the exclusive lower bound applied to neighbor similarity.
const DefaultMinSimilarity = 0.5

// GetNeighbors returns up to k users from train whose similarity to target
// is strictly greater than minSimilarity, ordered by similarity descending
// and then user ID ascending.
//
// An empty train yields an empty list. A target missing from a non-empty
// train yields a *UserNotFoundError. The scan runs across GOMAXPROCS
// shards and stops with ctx.Err() if ctx is cancelled.
func GetNeighbors(ctx context.Context, target UserID, train Ratings, k int, minSimilarity float64) ([]Neighbor, error) {
	return selectNeighbors(ctx, target, train, k, minSimilarity, 0)
}

// selectNeighbors is GetNeighbors with an explicit worker count.
// The result does not depend on workers.
func selectNeighbors(ctx context.Context, target UserID, train Ratings, k int, minSimilarity float64, workers int) ([]Neighbor, error) {
	if len(train) == 0 {
		return []Neighbor{}, nil
	}

	targetVec, ok := train[target]
	if !ok {
		return nil, &UserNotFoundError{UserID: target}
	}
	if err := targetVec.Validate(target); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Neighbor{}, nil
	}

	candidates := make([]UserID, 0, len(train)-1)
	for _, u := range train.Users() {
		if u != target {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return []Neighbor{}, nil
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}
	chunkSize := (len(candidates) + workers - 1) / workers

	partials := make([][]Neighbor, workers)
	g, gCtx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		if start >= len(candidates) {
			break
		}
		end := min(start+chunkSize, len(candidates))
		shard := candidates[start:end]
		idx := w

		g.Go(func() error {
			var found []Neighbor
			for _, u := range shard {
				if err := gCtx.Err(); err != nil {
					return err
				}
				sim := Pearson(train[u], targetVec)
				if sim > minSimilarity {
					found = append(found, Neighbor{UserID: u, Similarity: sim})
				}
			}
			sortNeighbors(found)
			partials[idx] = truncateNeighbors(found, k)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Each shard already holds its own top-k, so the global top-k is among them.
	merged := make([]Neighbor, 0, k)
	for _, p := range partials {
		merged = append(merged, p...)
	}
	sortNeighbors(merged)
	return truncateNeighbors(merged, k), nil
}

// sortNeighbors orders by similarity descending, then user ID ascending.
func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Similarity != ns[j].Similarity {
			return ns[i].Similarity > ns[j].Similarity
		}
		return ns[i].UserID < ns[j].UserID
	})
}

func truncateNeighbors(ns []Neighbor, k int) []Neighbor {
	if ns == nil {
		return []Neighbor{}
	}
	if len(ns) > k {
		return ns[:k]
	}
	return ns
}
