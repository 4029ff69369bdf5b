// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/tomtom215/ratingrec/internal/recommend"
)

func sampleDataset() *recommend.Dataset {
	return &recommend.Dataset{
		Train: recommend.Ratings{
			"1": {"10": 5, "11": 3},
			"2": {"10": 4, "12": 1},
			"3": {"11": 2},
		},
		Test: recommend.Ratings{
			"1": {"12": 4},
			"4": {"10": 5},
		},
	}
}

// sliceSource is an in-memory Source.
type sliceSource struct {
	records []Record
	err     error
}

func (s *sliceSource) Users(ctx context.Context) ([]recommend.UserID, error) {
	if s.err != nil {
		return nil, s.err
	}
	seen := make(map[recommend.UserID]struct{})
	var users []recommend.UserID
	for _, r := range s.records {
		if _, ok := seen[r.User]; !ok {
			seen[r.User] = struct{}{}
			users = append(users, r.User)
		}
	}
	slices.Sort(users)
	return users, nil
}

func (s *sliceSource) Scan(ctx context.Context, fn func(Record) error) error {
	for _, r := range s.records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// memProvider is an in-memory Provider that can be told to fail.
type memProvider struct {
	mu      sync.Mutex
	ds      *recommend.Dataset
	loadErr error
	saveErr error
	loads   int
	saves   int
}

var errProviderDown = errors.New("provider down")

func (m *memProvider) Name() string { return "mem" }

func (m *memProvider) Load(ctx context.Context) (*recommend.Dataset, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	if m.ds == nil {
		return nil, false, nil
	}
	return m.ds, true, nil
}

func (m *memProvider) Save(ctx context.Context, ds *recommend.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.ds = ds
	return nil
}

func (m *memProvider) Close() error { return nil }

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// assertDisjoint fails if any (user, item) appears in both splits.
func assertDisjoint(t *testing.T, ds *recommend.Dataset) {
	t.Helper()
	for user, vec := range ds.Test {
		for item := range vec {
			if _, ok := ds.Train[user][item]; ok {
				t.Errorf("user %s item %s present in both splits", user, item)
			}
		}
	}
}
