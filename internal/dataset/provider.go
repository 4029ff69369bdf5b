// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/ratingrec/internal/recommend"
)

var (
	// ErrDatasetUnavailable is returned by the Preparer when no stored split
	// exists and it is not allowed to build one.
	ErrDatasetUnavailable = errors.New("dataset unavailable")

	// ErrProviderUnavailable is returned while a provider's circuit breaker is open.
	ErrProviderUnavailable = errors.New("dataset provider unavailable")
)

// Split names used by the persistent providers.
const (
	SplitTrain = "train"
	SplitTest  = "test"
)

// Provider persists a prepared train/test split.
//
// Load reports found=false with a nil error when nothing has been stored
// yet, so that callers can decide to build the split instead.
type Provider interface {
	Name() string
	Load(ctx context.Context) (ds *recommend.Dataset, found bool, err error)
	Save(ctx context.Context, ds *recommend.Dataset) error
	Close() error
}

// Kind selects a Provider implementation.
type Kind string

const (
	KindJSON   Kind = "json"
	KindBadger Kind = "badger"
	KindDuckDB Kind = "duckdb"
)

// ProviderConfig holds the locations for every provider kind.
type ProviderConfig struct {
	Kind       Kind
	JSONDir    string
	BadgerDir  string
	DuckDBPath string
}

// OpenProvider opens the provider selected by cfg.Kind.
func OpenProvider(cfg ProviderConfig) (Provider, error) {
	switch Kind(strings.ToLower(string(cfg.Kind))) {
	case KindJSON, "":
		return NewJSONProvider(cfg.JSONDir), nil
	case KindBadger:
		return OpenBadgerProvider(cfg.BadgerDir)
	case KindDuckDB:
		return OpenDuckDBProvider(cfg.DuckDBPath)
	default:
		return nil, fmt.Errorf("unknown dataset provider %q", cfg.Kind)
	}
}

// ratingsFor returns the split of ds named by split.
func ratingsFor(ds *recommend.Dataset, split string) recommend.Ratings {
	if split == SplitTest {
		return ds.Test
	}
	return ds.Train
}

// put stores one rating into the named split of ds.
func put(ds *recommend.Dataset, split string, user recommend.UserID, item recommend.ItemID, r recommend.Rating) error {
	var target recommend.Ratings
	switch split {
	case SplitTrain:
		target = ds.Train
	case SplitTest:
		target = ds.Test
	default:
		return fmt.Errorf("unknown split %q", split)
	}
	vec, ok := target[user]
	if !ok {
		vec = make(recommend.RatingVector)
		target[user] = vec
	}
	vec[item] = r
	return nil
}
