// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package recommend

import (
	"context"
	"sort"
)

// itemAccumulator holds the running (sum, count) for one candidate item.
type itemAccumulator struct {
	sum   float64
	count int
}

// Aggregate folds the neighbors' ratings into a ranked candidate list for target.
//
// For every neighbor, in the order given, and every item the neighbor rated
// that target has not, the value similarity × rating is added to the item's
// sum and its count is incremented. An item's score is sum / count, the mean
// of its contributions. Candidates are ordered by score descending, then
// item ID ascending, and truncated to nItems.
//
// Neighbors missing from train are skipped. Items rated by target never
// appear in the result.
func Aggregate(target UserID, neighbors []Neighbor, train Ratings, nItems int) ([]ScoredItem, error) {
	seen, ok := train[target]
	if !ok {
		return nil, &UserNotFoundError{UserID: target}
	}
	if nItems <= 0 {
		return []ScoredItem{}, nil
	}

	acc := make(map[ItemID]*itemAccumulator)
	for _, nb := range neighbors {
		vec, ok := train[nb.UserID]
		if !ok || nb.UserID == target {
			continue
		}
		if err := vec.Validate(nb.UserID); err != nil {
			return nil, err
		}
		for item, rating := range vec {
			if _, rated := seen[item]; rated {
				continue
			}
			a, exists := acc[item]
			if !exists {
				a = &itemAccumulator{}
				acc[item] = a
			}
			a.sum += nb.Similarity * float64(rating)
			a.count++
		}
	}

	scored := make([]ScoredItem, 0, len(acc))
	for item, a := range acc {
		scored = append(scored, ScoredItem{
			ItemID:       item,
			Score:        a.sum / float64(a.count),
			Contributors: a.count,
		})
	}
	sortScoredItems(scored)

	if len(scored) > nItems {
		scored = scored[:nItems]
	}
	return scored, nil
}

// GetRecommendations selects neighbors for target and aggregates their
// unseen items. It returns a *UserNotFoundError when target has no train
// ratings, including when train is empty. A target with no neighbors above
// the threshold gets an empty list. On error no partial result is returned.
func GetRecommendations(ctx context.Context, target UserID, train Ratings, opts Options) (*Result, error) {
	if _, ok := train[target]; !ok {
		return nil, &UserNotFoundError{UserID: target}
	}

	neighbors, err := selectNeighbors(ctx, target, train, opts.K, opts.MinSimilarity, opts.Workers)
	if err != nil {
		return nil, err
	}

	scored, err := Aggregate(target, neighbors, train, opts.NItems)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Items:     make([]ItemID, len(scored)),
		Neighbors: neighbors,
	}
	for i, s := range scored {
		res.Items[i] = s.ItemID
	}
	if opts.WithScores {
		res.Scored = scored
	}
	return res, nil
}

// sortScoredItems orders by score descending, then item ID ascending.
func sortScoredItems(items []ScoredItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ItemID < items[j].ItemID
	})
}
