// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package dataset

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/tomtom215/ratingrec/internal/recommend"
)

// Partitioner defaults.
const (
	DefaultSeed            = 30
	DefaultSampleUsers     = 1000
	DefaultTestProbability = 0.02
)

// Partitioner samples users from a Source and splits their ratings into
// disjoint train and test sets.
type Partitioner struct {
	Seed int64

	// SampleUsers is how many users to keep. Zero or less keeps all users.
	SampleUsers int

	// TestProbability is the chance that a rating goes to the test split.
	TestProbability float64
}

// DefaultPartitioner returns a Partitioner with the default seed, sample
// size and test probability.
func DefaultPartitioner() *Partitioner {
	return &Partitioner{
		Seed:            DefaultSeed,
		SampleUsers:     DefaultSampleUsers,
		TestProbability: DefaultTestProbability,
	}
}

// Report describes a prepared split.
type Report struct {
	// Loaded is true when the split came from a Provider rather than a build.
	Loaded bool `json:"loaded"`

	SourceUsers  int `json:"source_users,omitempty"`
	SampledUsers int `json:"sampled_users,omitempty"`
	TrainUsers   int `json:"train_users"`
	TestUsers    int `json:"test_users"`
	TrainRatings int `json:"train_ratings"`
	TestRatings  int `json:"test_ratings"`

	// Overlaps counts users with ratings in both splits.
	Overlaps int `json:"overlaps"`

	// Duplicates counts source records that replaced an earlier record for
	// the same (user, item).
	Duplicates int `json:"duplicates,omitempty"`
}

func (p *Partitioner) validate() error {
	if p.TestProbability < 0 || p.TestProbability > 1 || math.IsNaN(p.TestProbability) {
		return fmt.Errorf("test probability %v outside [0, 1]", p.TestProbability)
	}
	return nil
}

// Partition reads src twice: once to sample users and once to assign each
// sampled user's ratings. The same seed and source always produce the same
// split.
func (p *Partitioner) Partition(ctx context.Context, src Source) (*recommend.Dataset, Report, error) {
	if src == nil {
		return nil, Report{}, errors.New("partition: nil source")
	}
	if err := p.validate(); err != nil {
		return nil, Report{}, fmt.Errorf("partition: %w", err)
	}

	users, err := src.Users(ctx)
	if err != nil {
		return nil, Report{}, fmt.Errorf("collect users: %w", err)
	}
	slices.Sort(users)

	rng := rand.New(rand.NewSource(p.Seed)) //nolint:gosec // reproducible sampling, not security
	rng.Shuffle(len(users), func(i, j int) { users[i], users[j] = users[j], users[i] })
	n := len(users)
	if p.SampleUsers > 0 && p.SampleUsers < n {
		n = p.SampleUsers
	}
	sampled := make(map[recommend.UserID]struct{}, n)
	for _, u := range users[:n] {
		sampled[u] = struct{}{}
	}

	ds := recommend.NewDataset()
	report := Report{SourceUsers: len(users), SampledUsers: n}

	err = src.Scan(ctx, func(r Record) error {
		if _, ok := sampled[r.User]; !ok {
			return nil
		}
		to, from := ds.Train, ds.Test
		if rng.Float64() < p.TestProbability {
			to, from = ds.Test, ds.Train
		}
		if _, dup := ds.Train[r.User][r.Item]; dup {
			report.Duplicates++
		} else if _, dup := ds.Test[r.User][r.Item]; dup {
			report.Duplicates++
		}
		if vec, ok := from[r.User]; ok {
			delete(vec, r.Item)
			if len(vec) == 0 {
				delete(from, r.User)
			}
		}
		vec, ok := to[r.User]
		if !ok {
			vec = make(recommend.RatingVector)
			to[r.User] = vec
		}
		vec[r.Item] = r.Rating
		return nil
	})
	if err != nil {
		return nil, Report{}, fmt.Errorf("split ratings: %w", err)
	}

	fillReport(&report, ds)
	return ds, report, nil
}

func fillReport(r *Report, ds *recommend.Dataset) {
	stats := ds.Stats()
	r.TrainUsers = stats.TrainUsers
	r.TestUsers = stats.TestUsers
	r.TrainRatings = stats.TrainRatings
	r.TestRatings = stats.TestRatings
	r.Overlaps = 0
	for u := range ds.Test {
		if _, ok := ds.Train[u]; ok {
			r.Overlaps++
		}
	}
}
