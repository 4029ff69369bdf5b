// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package recommend

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned when the target user has no train ratings.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidRating is returned for a rating outside [1, 5].
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidDataset is returned when a dataset fails validation.
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrDatasetNotLoaded is returned by the Engine before a dataset is installed.
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
)

// UserNotFoundError identifies the missing user. It matches ErrUserNotFound.
type UserNotFoundError struct {
	UserID UserID
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user %q not found in train set", e.UserID)
}

// Unwrap returns ErrUserNotFound.
func (e *UserNotFoundError) Unwrap() error { return ErrUserNotFound }

// InvalidRatingError identifies an out-of-range rating. It matches ErrInvalidRating.
type InvalidRatingError struct {
	UserID UserID
	ItemID ItemID
	Rating Rating
}

func (e *InvalidRatingError) Error() string {
	return fmt.Sprintf("rating %d for user %q item %q outside [%d, %d]",
		e.Rating, e.UserID, e.ItemID, MinRating, MaxRating)
}

// Unwrap returns ErrInvalidRating.
func (e *InvalidRatingError) Unwrap() error { return ErrInvalidRating }

// OverlapError reports a (user, item) pair present in both train and test.
type OverlapError struct {
	UserID UserID
	ItemID ItemID
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("user %q item %q present in both train and test", e.UserID, e.ItemID)
}

// Unwrap returns ErrInvalidDataset.
func (e *OverlapError) Unwrap() error { return ErrInvalidDataset }
