// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package recommend

import (
	"fmt"
	"math"
)

// Pearson returns the Pearson correlation of a and b over their co-rated items.
//
// With S the shared items and n = |S|:
//
//	r = (Σxy − ΣxΣy/n) / (sqrt(Σx² − (Σx)²/n) · sqrt(Σy² − (Σy)²/n))
//
// It returns 0 when n is 0 or when either vector is constant over S.
// Sums are accumulated as integers and the n factor is cleared from
// numerator and denominator, so zero variance is detected exactly.
// Pearson is symmetric and has no side effects.
func Pearson(a, b RatingVector) float64 {
	// Iterate the smaller map; swapping does not change the result.
	small, large := a, b
	swapped := false
	if len(b) < len(a) {
		small, large = b, a
		swapped = true
	}

	var n, sumX, sumY, sumXY, sumX2, sumY2 int64
	for item, rs := range small {
		rl, ok := large[item]
		if !ok {
			continue
		}
		x, y := int64(rs), int64(rl)
		if swapped {
			x, y = y, x
		}
		n++
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
		sumY2 += y * y
	}
	if n == 0 {
		return 0
	}

	varX := n*sumX2 - sumX*sumX
	varY := n*sumY2 - sumY*sumY
	if varX == 0 || varY == 0 {
		return 0
	}

	r := float64(n*sumXY-sumX*sumY) / (math.Sqrt(float64(varX)) * math.Sqrt(float64(varY)))

	// Clamp rounding drift.
	switch {
	case r > 1:
		return 1
	case r < -1:
		return -1
	}
	return r
}

// ComputeSimilarity validates both vectors and returns their Pearson correlation.
// It is the standalone diagnostic entry point; callers with already
// validated data can use Pearson directly.
func ComputeSimilarity(a, b RatingVector) (float64, error) {
	if err := a.Validate(""); err != nil {
		return 0, fmt.Errorf("vector a: %w", err)
	}
	if err := b.Validate(""); err != nil {
		return 0, fmt.Errorf("vector b: %w", err)
	}
	return Pearson(a, b), nil
}
