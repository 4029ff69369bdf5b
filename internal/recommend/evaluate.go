// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package recommend

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// EvalRequest selects the users and parameters of an offline evaluation.
type EvalRequest struct {
	// Users restricts evaluation to these users. Empty means every user
	// present in both train and test.
	Users []UserID `json:"users,omitempty" validate:"omitempty,max=10000,dive,required,entity_id"`

	// K, MinSimilarity and NItems override the engine defaults when set.
	K             int      `json:"k,omitempty" validate:"gte=0"`
	MinSimilarity *float64 `json:"min_similarity,omitempty" validate:"omitempty,gte=-1,lte=1"`
	NItems        int      `json:"n_items,omitempty" validate:"gte=0"`
}

// EvalReport holds top-N accuracy against the test split.
type EvalReport struct {
	UsersEvaluated        int     `json:"users_evaluated"`
	UsersSkipped          int     `json:"users_skipped"`
	UsersWithoutNeighbors int     `json:"users_without_neighbors"`
	Hits                  int     `json:"hits"`
	Recommended           int     `json:"recommended"`
	Relevant              int     `json:"relevant"`
	Precision             float64 `json:"precision"`
	Recall                float64 `json:"recall"`
	Coverage              float64 `json:"coverage"`
	K                     int     `json:"k"`
	MinSimilarity         float64 `json:"min_similarity"`
	NItems                int     `json:"n_items"`
	DatasetVersion        int64   `json:"dataset_version,omitempty"`
}

// userEval is the outcome for a single evaluated user.
type userEval struct {
	skipped     bool
	noNeighbors bool
	hits        int
	relevant    int
	items       []ItemID
}

// Evaluate recommends opts.NItems items to each user and compares them with
// the user's test ratings.
//
//   - Precision is total hits over total recommended items.
//   - Recall is total hits over total test ratings.
//   - Coverage is distinct recommended items over distinct train items.
//
// Users without train or test ratings are counted as skipped. Users are
// evaluated concurrently, bounded by opts.Workers, and the report does not
// depend on scheduling. A cancelled ctx aborts the run.
func Evaluate(ctx context.Context, ds *Dataset, users []UserID, opts Options) (*EvalReport, error) {
	if ds == nil {
		return nil, ErrInvalidDataset
	}
	if len(users) == 0 {
		for _, u := range ds.Test.Users() {
			if _, ok := ds.Train[u]; ok {
				users = append(users, u)
			}
		}
	} else {
		users = dedupeUsers(users)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	inner := opts
	inner.Workers = 1
	inner.WithScores = false

	results := make([]userEval, len(users))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, user := range users {
		g.Go(func() error {
			testVec, inTest := ds.Test[user]
			if _, inTrain := ds.Train[user]; !inTrain || !inTest || len(testVec) == 0 {
				results[i] = userEval{skipped: true}
				return nil
			}
			res, err := GetRecommendations(gCtx, user, ds.Train, inner)
			if err != nil {
				return err
			}
			ev := userEval{
				noNeighbors: len(res.Neighbors) == 0,
				relevant:    len(testVec),
				items:       res.Items,
			}
			for _, item := range res.Items {
				if _, ok := testVec[item]; ok {
					ev.hits++
				}
			}
			results[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &EvalReport{
		K:             opts.K,
		MinSimilarity: opts.MinSimilarity,
		NItems:        opts.NItems,
	}
	distinct := make(map[ItemID]struct{})
	for _, ev := range results {
		if ev.skipped {
			report.UsersSkipped++
			continue
		}
		report.UsersEvaluated++
		if ev.noNeighbors {
			report.UsersWithoutNeighbors++
		}
		report.Hits += ev.hits
		report.Relevant += ev.relevant
		report.Recommended += len(ev.items)
		for _, item := range ev.items {
			distinct[item] = struct{}{}
		}
	}

	if report.Recommended > 0 {
		report.Precision = float64(report.Hits) / float64(report.Recommended)
	}
	if report.Relevant > 0 {
		report.Recall = float64(report.Hits) / float64(report.Relevant)
	}
	if trainItems := len(ds.Train.Items()); trainItems > 0 {
		report.Coverage = float64(len(distinct)) / float64(trainItems)
	}
	return report, nil
}

// isUserNotFound reports whether err is, or wraps, ErrUserNotFound.
func isUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// dedupeUsers drops repeated users, keeping first occurrences in order.
func dedupeUsers(users []UserID) []UserID {
	seen := make(map[UserID]struct{}, len(users))
	out := make([]UserID, 0, len(users))
	for _, u := range users {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
