// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package recommend

import (
	"sort"
	"time"
)

// UserID is an opaque user identifier.
type UserID string

// ItemID is an opaque item identifier.
type ItemID string

// Rating is an explicit integer rating on a 1 to 5 scale.
type Rating int

const (
	// MinRating is the lowest valid rating.
	MinRating Rating = 1
	// MaxRating is the highest valid rating.
	MaxRating Rating = 5
)

// Valid reports whether r lies within [MinRating, MaxRating].
func (r Rating) Valid() bool {
	return r >= MinRating && r <= MaxRating
}

// RatingVector holds one user's ratings keyed by item. Only rated items are present.
type RatingVector map[ItemID]Rating

// Validate returns an InvalidRatingError for the first out-of-range rating,
// checked in item order so the reported item is stable.
func (v RatingVector) Validate(user UserID) error {
	var bad []ItemID
	for item, r := range v {
		if !r.Valid() {
			bad = append(bad, item)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Slice(bad, func(i, j int) bool { return bad[i] < bad[j] })
	return &InvalidRatingError{UserID: user, ItemID: bad[0], Rating: v[bad[0]]}
}

// Ratings maps users to their rating vectors.
type Ratings map[UserID]RatingVector

// Users returns the user IDs in ascending order.
func (r Ratings) Users() []UserID {
	users := make([]UserID, 0, len(r))
	for u := range r {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// NumRatings returns the total number of (user, item) pairs.
func (r Ratings) NumRatings() int {
	n := 0
	for _, v := range r {
		n += len(v)
	}
	return n
}

// Items returns the set of distinct items rated by any user.
func (r Ratings) Items() map[ItemID]struct{} {
	items := make(map[ItemID]struct{})
	for _, v := range r {
		for item := range v {
			items[item] = struct{}{}
		}
	}
	return items
}

// Dataset is a train/test partition of a rating matrix.
// The engine treats a Dataset as read-only once it has been installed.
type Dataset struct {
	// Train supplies neighbors and candidate items.
	Train Ratings `json:"train"`

	// Test holds ratings withheld from Train, used only for evaluation.
	Test Ratings `json:"test"`
}

// NewDataset returns an empty dataset with both splits allocated.
func NewDataset() *Dataset {
	return &Dataset{
		Train: make(Ratings),
		Test:  make(Ratings),
	}
}

// Validate checks every rating in both splits, and that train and test
// never share a (user, item) pair.
func (d *Dataset) Validate() error {
	if d == nil {
		return ErrInvalidDataset
	}
	for _, split := range []Ratings{d.Train, d.Test} {
		for _, user := range split.Users() {
			if err := split[user].Validate(user); err != nil {
				return err
			}
		}
	}
	for user, testVec := range d.Test {
		trainVec, ok := d.Train[user]
		if !ok {
			continue
		}
		for item := range testVec {
			if _, dup := trainVec[item]; dup {
				return &OverlapError{UserID: user, ItemID: item}
			}
		}
	}
	return nil
}

// Stats summarizes a dataset.
func (d *Dataset) Stats() DatasetStats {
	return DatasetStats{
		TrainUsers:   len(d.Train),
		TestUsers:    len(d.Test),
		TrainRatings: d.Train.NumRatings(),
		TestRatings:  d.Test.NumRatings(),
		TrainItems:   len(d.Train.Items()),
	}
}

// DatasetStats holds size counters for a dataset.
type DatasetStats struct {
	TrainUsers   int `json:"train_users"`
	TestUsers    int `json:"test_users"`
	TrainRatings int `json:"train_ratings"`
	TestRatings  int `json:"test_ratings"`
	TrainItems   int `json:"train_items"`
}

// Neighbor is a user similar to the target, with its Pearson similarity.
type Neighbor struct {
	UserID     UserID  `json:"user_id"`
	Similarity float64 `json:"similarity"`
}

// ScoredItem is a candidate item with its aggregated score.
type ScoredItem struct {
	// ItemID is the candidate item.
	ItemID ItemID `json:"item_id"`

	// Score is the mean of similarity-weighted ratings from contributing neighbors.
	Score float64 `json:"score"`

	// Contributors is the number of neighbors who rated the item.
	Contributors int `json:"contributors"`
}

// Options controls neighbor selection and aggregation.
type Options struct {
	// K is the maximum number of neighbors.
	K int

	// MinSimilarity is the exclusive lower bound on neighbor similarity.
	MinSimilarity float64

	// NItems is the maximum number of recommended items.
	NItems int

	// WithScores requests the scored candidate list in addition to item IDs.
	WithScores bool

	// Workers bounds the parallelism of the neighbor scan. Zero means GOMAXPROCS.
	Workers int
}

// Result is the output of GetRecommendations.
type Result struct {
	// Items is the ranked item list.
	Items []ItemID

	// Scored mirrors Items with scores. Nil unless Options.WithScores is set.
	Scored []ScoredItem

	// Neighbors are the neighbors that contributed, in fold order.
	Neighbors []Neighbor
}

// Request is a recommendation request served by the Engine.
type Request struct {
	// UserID is the target user.
	UserID UserID `json:"user_id" validate:"required,entity_id"`

	// K overrides the configured neighbor count when positive.
	K int `json:"k,omitempty" validate:"gte=0"`

	// MinSimilarity overrides the configured threshold when non-nil.
	MinSimilarity *float64 `json:"min_similarity,omitempty" validate:"omitempty,gte=-1,lte=1"`

	// NItems overrides the configured list length when positive.
	NItems int `json:"n_items,omitempty" validate:"gte=0"`

	// WithScores includes per-item scores in the response.
	WithScores bool `json:"with_scores,omitempty"`

	// RequestID is used for log correlation. Generated if empty.
	RequestID string `json:"request_id,omitempty"`
}

// Response is the Engine's answer to a Request.
type Response struct {
	// Items is the ranked list of recommended item IDs.
	Items []ItemID `json:"items"`

	// Scored carries scores when requested.
	Scored []ScoredItem `json:"scored,omitempty"`

	// Metadata contains timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID correlates the response with logs.
	RequestID string `json:"request_id"`

	// UserID is the target user.
	UserID UserID `json:"user_id"`

	// K, MinSimilarity and NItems are the effective parameters.
	K             int     `json:"k"`
	MinSimilarity float64 `json:"min_similarity"`
	NItems        int     `json:"n_items"`

	// Neighbors is the number of neighbors that contributed.
	Neighbors int `json:"neighbors"`

	// LatencyMS is the processing time in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// CacheHit indicates the response was served from cache.
	CacheHit bool `json:"cache_hit"`

	// DatasetVersion identifies the dataset snapshot that served the request.
	DatasetVersion int64 `json:"dataset_version"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// NeighborsRequest asks the Engine for a user's neighbors.
type NeighborsRequest struct {
	UserID        UserID   `json:"user_id" validate:"required,entity_id"`
	K             int      `json:"k,omitempty" validate:"gte=0"`
	MinSimilarity *float64 `json:"min_similarity,omitempty" validate:"omitempty,gte=-1,lte=1"`
}

// NeighborsResponse is the Engine's answer to a NeighborsRequest.
type NeighborsResponse struct {
	Neighbors      []Neighbor `json:"neighbors"`
	K              int        `json:"k"`
	MinSimilarity  float64    `json:"min_similarity"`
	DatasetVersion int64      `json:"dataset_version"`
}
