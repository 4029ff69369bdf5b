// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package recommend

import (
	"fmt"
	"math/rand"
)

// fixtureTrain is a small train set with known neighbor structure for "alice":
//
//	bob, frank  agree with alice exactly on m1-m3  (r = 1, tied)
//	carol       agrees less closely                (r ≈ 0.982)
//	dave        disagrees                          (r = -1)
//	erin        shares a single item               (r = 0)
//
// Recommending for alice with k >= 3 ranks m9 (4.0), m4 (≈3.97),
// m6 (≈3.93), m5 (2.0).
func fixtureTrain() Ratings {
	return Ratings{
		"alice": {"m1": 5, "m2": 3, "m3": 1},
		"bob":   {"m1": 5, "m2": 3, "m3": 1, "m4": 5, "m5": 2},
		"carol": {"m1": 5, "m2": 4, "m3": 2, "m4": 3, "m6": 4},
		"dave":  {"m1": 1, "m2": 3, "m3": 5, "m7": 5},
		"erin":  {"m1": 5, "m8": 5},
		"frank": {"m1": 5, "m2": 3, "m3": 1, "m9": 4},
	}
}

// randomRatings builds a reproducible train set for property tests.
func randomRatings(seed int64, users, items int, density float64) Ratings {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // test data
	train := make(Ratings, users)
	for u := 0; u < users; u++ {
		vec := make(RatingVector)
		for i := 0; i < items; i++ {
			if rng.Float64() < density {
				vec[ItemID(fmt.Sprintf("i%03d", i))] = Rating(1 + rng.Intn(5))
			}
		}
		if len(vec) == 0 {
			vec[ItemID(fmt.Sprintf("i%03d", rng.Intn(items)))] = Rating(1 + rng.Intn(5))
		}
		train[UserID(fmt.Sprintf("u%03d", u))] = vec
	}
	return train
}
