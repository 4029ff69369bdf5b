// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package recommend

import (
	"context"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genRatingVector generates sparse vectors over a small item universe so
// that overlaps are common.
func genRatingVector() gopter.Gen {
	return gen.MapOf(
		gen.OneConstOf(ItemID("a"), ItemID("b"), ItemID("c"), ItemID("d"), ItemID("e"), ItemID("f")),
		gen.IntRange(1, 5).Map(func(v int) Rating { return Rating(v) }),
	)
}

func TestSimilarityProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("symmetric", prop.ForAll(
		func(a, b map[ItemID]Rating) bool {
			return Pearson(a, b) == Pearson(b, a)
		},
		genRatingVector(), genRatingVector(),
	))

	properties.Property("bounded by [-1, 1]", prop.ForAll(
		func(a, b map[ItemID]Rating) bool {
			r := Pearson(a, b)
			return r >= -1 && r <= 1
		},
		genRatingVector(), genRatingVector(),
	))

	properties.Property("self-correlation is 1 or 0", prop.ForAll(
		func(a map[ItemID]Rating) bool {
			r := Pearson(a, a)
			distinct := make(map[Rating]struct{})
			for _, v := range a {
				distinct[v] = struct{}{}
			}
			if len(distinct) >= 2 {
				return approxEqual(r, 1)
			}
			return r == 0
		},
		genRatingVector(),
	))

	properties.Property("disjoint vectors have zero similarity", prop.ForAll(
		func(a map[ItemID]Rating, shift int) bool {
			b := make(RatingVector, len(a))
			for item, v := range a {
				b[item+"-other"] = Rating((int(v)+shift)%5 + 1)
			}
			return Pearson(a, b) == 0
		},
		genRatingVector(), gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}

func TestRecommendationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40

	properties := gopter.NewProperties(parameters)
	ctx := context.Background()

	properties.Property("neighbor bound and ordering", prop.ForAll(
		func(seed int64, k int, minSim float64) bool {
			train := randomRatings(seed, 60, 20, 0.4)
			ns, err := GetNeighbors(ctx, "u000", train, k, minSim)
			if err != nil || len(ns) > k {
				return false
			}
			for i, n := range ns {
				if n.Similarity <= minSim || n.UserID == "u000" {
					return false
				}
				if i > 0 && ns[i-1].Similarity < n.Similarity {
					return false
				}
			}
			return true
		},
		gen.Int64Range(1, 1<<30), gen.IntRange(0, 30), gen.Float64Range(-1, 1),
	))

	properties.Property("recommendations exclude seen items and respect size", prop.ForAll(
		func(seed int64, nItems int) bool {
			train := randomRatings(seed, 60, 30, 0.3)
			res, err := GetRecommendations(ctx, "u001", train, Options{K: 10, MinSimilarity: 0.2, NItems: nItems})
			if err != nil || len(res.Items) > nItems {
				return false
			}
			for _, item := range res.Items {
				if _, seen := train["u001"][item]; seen {
					return false
				}
			}
			return true
		},
		gen.Int64Range(1, 1<<30), gen.IntRange(0, 25),
	))

	properties.Property("deterministic across runs and worker counts", prop.ForAll(
		func(seed int64, workers int) bool {
			train := randomRatings(seed, 80, 25, 0.35)
			opts := Options{K: 12, MinSimilarity: 0.1, NItems: 15, WithScores: true, Workers: 1}
			first, err := GetRecommendations(ctx, "u002", train, opts)
			if err != nil {
				return false
			}
			opts.Workers = workers
			second, err := GetRecommendations(ctx, "u002", train, opts)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(first, second)
		},
		gen.Int64Range(1, 1<<30), gen.IntRange(1, 12),
	))

	properties.TestingRun(t)
}
