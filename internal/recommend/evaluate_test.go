// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package recommend

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func fixtureDataset() *Dataset {
	return &Dataset{
		Train: fixtureTrain(),
		Test: Ratings{
			"alice": {"m9": 5, "m7": 2}, // m9 is recommended, m7 is not
			"erin":  {"m2": 4},          // erin has no neighbors
			"ghost": {"m1": 3},          // not in train
		},
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	report, err := Evaluate(context.Background(), fixtureDataset(), nil, Options{K: 15, MinSimilarity: 0.5, NItems: 2})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	// alice: recommended [m9 m4], 1 hit of 2 relevant
	// erin: recommended nothing, 0 of 1 relevant
	// ghost is not in train so it is not selected by default
	if report.UsersEvaluated != 2 {
		t.Errorf("UsersEvaluated = %d, want 2", report.UsersEvaluated)
	}
	if report.UsersSkipped != 0 {
		t.Errorf("UsersSkipped = %d, want 0", report.UsersSkipped)
	}
	if report.UsersWithoutNeighbors != 1 {
		t.Errorf("UsersWithoutNeighbors = %d, want 1", report.UsersWithoutNeighbors)
	}
	if report.Hits != 1 || report.Recommended != 2 || report.Relevant != 3 {
		t.Errorf("hits/recommended/relevant = %d/%d/%d, want 1/2/3", report.Hits, report.Recommended, report.Relevant)
	}
	if !approxEqual(report.Precision, 0.5) {
		t.Errorf("Precision = %v, want 0.5", report.Precision)
	}
	if !approxEqual(report.Recall, 1.0/3.0) {
		t.Errorf("Recall = %v, want 1/3", report.Recall)
	}
	// Train has 9 distinct items, 2 were recommended.
	if !approxEqual(report.Coverage, 2.0/9.0) {
		t.Errorf("Coverage = %v, want 2/9", report.Coverage)
	}
}

func TestEvaluate_ExplicitUsers(t *testing.T) {
	t.Parallel()

	report, err := Evaluate(context.Background(), fixtureDataset(), []UserID{"alice", "ghost", "bob"}, Options{K: 15, MinSimilarity: 0.5, NItems: 5})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	// ghost has no train ratings and bob has no test ratings.
	if report.UsersEvaluated != 1 || report.UsersSkipped != 2 {
		t.Errorf("evaluated/skipped = %d/%d, want 1/2", report.UsersEvaluated, report.UsersSkipped)
	}
}

func TestEvaluate_RepeatedUsersCountOnce(t *testing.T) {
	t.Parallel()

	opts := Options{K: 15, MinSimilarity: 0.5, NItems: 2}
	once, err := Evaluate(context.Background(), fixtureDataset(), []UserID{"alice"}, opts)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	repeated, err := Evaluate(context.Background(), fixtureDataset(), []UserID{"alice", "alice", "alice"}, opts)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !reflect.DeepEqual(once, repeated) {
		t.Errorf("repeated users report = %+v, want %+v", repeated, once)
	}
	if repeated.UsersEvaluated != 1 || repeated.Hits != 1 || repeated.Relevant != 2 {
		t.Errorf("evaluated/hits/relevant = %d/%d/%d, want 1/1/2", repeated.UsersEvaluated, repeated.Hits, repeated.Relevant)
	}
}

func TestEvaluate_DeterministicAcrossWorkers(t *testing.T) {
	t.Parallel()

	train := randomRatings(11, 120, 40, 0.3)
	test := make(Ratings)
	for _, u := range train.Users()[:40] {
		// Move one rating per user into test to keep the split disjoint.
		for item, r := range train[u] {
			test[u] = RatingVector{item: r}
			delete(train[u], item)
			break
		}
		if len(train[u]) == 0 {
			delete(train, u)
			delete(test, u)
		}
	}
	ds := &Dataset{Train: train, Test: test}

	want, err := Evaluate(context.Background(), ds, nil, Options{K: 10, MinSimilarity: 0.2, NItems: 10, Workers: 1})
	if err != nil {
		t.Fatalf("Evaluate(workers=1) error = %v", err)
	}
	got, err := Evaluate(context.Background(), ds, nil, Options{K: 10, MinSimilarity: 0.2, NItems: 10, Workers: 8})
	if err != nil {
		t.Fatalf("Evaluate(workers=8) error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reports differ:\n got  %+v\n want %+v", got, want)
	}
}

func TestEvaluate_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Evaluate(ctx, fixtureDataset(), nil, Options{K: 15, MinSimilarity: 0.5, NItems: 5})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if report != nil {
		t.Errorf("report = %+v, want nil", report)
	}
}

func TestEvaluate_NilDataset(t *testing.T) {
	t.Parallel()

	if _, err := Evaluate(context.Background(), nil, nil, Options{}); !errors.Is(err, ErrInvalidDataset) {
		t.Errorf("error = %v, want ErrInvalidDataset", err)
	}
}
