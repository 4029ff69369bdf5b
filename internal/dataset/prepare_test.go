// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package dataset

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ratingrec/internal/recommend"
)

func TestPreparer_LoadsStoredSplit(t *testing.T) {
	t.Parallel()

	provider := &memProvider{ds: sampleDataset()}
	p := &Preparer{Provider: provider, Source: gridSource(3, 3), BuildIfMissing: true, Logger: zerolog.Nop()}

	ds, report, err := p.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !report.Loaded {
		t.Error("Report.Loaded = false, want true")
	}
	if ds.Stats() != sampleDataset().Stats() {
		t.Errorf("Stats() = %+v, want stored split", ds.Stats())
	}
	// user 1 has ratings in both splits
	if report.Overlaps != 1 {
		t.Errorf("Overlaps = %d, want 1", report.Overlaps)
	}
	if provider.saves != 0 {
		t.Errorf("saves = %d, want 0", provider.saves)
	}
}

func TestPreparer_BuildsAndSaves(t *testing.T) {
	t.Parallel()

	provider := &memProvider{}
	p := &Preparer{
		Provider:       provider,
		Source:         gridSource(6, 10),
		Partitioner:    &Partitioner{Seed: 30, SampleUsers: 4, TestProbability: 0.1},
		BuildIfMissing: true,
		Logger:         zerolog.Nop(),
	}

	ds, report, err := p.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if report.Loaded || report.SampledUsers != 4 {
		t.Errorf("Report = %+v, want built with 4 sampled users", report)
	}
	if provider.saves != 1 || provider.ds != ds {
		t.Errorf("saves = %d, want the built dataset saved once", provider.saves)
	}

	// The second run loads what the first stored.
	_, report, err = p.Prepare(context.Background())
	if err != nil || !report.Loaded {
		t.Errorf("second Prepare() = (%+v, %v), want loaded", report, err)
	}
}

func TestPreparer_RebuildReplacesStoredSplit(t *testing.T) {
	t.Parallel()

	stored := sampleDataset()
	provider := &memProvider{ds: stored}
	p := &Preparer{
		Provider:    provider,
		Source:      gridSource(6, 10),
		Partitioner: &Partitioner{Seed: 30, SampleUsers: 4, TestProbability: 0.1},
		Rebuild:     true,
		Logger:      zerolog.Nop(),
	}

	ds, report, err := p.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if report.Loaded || report.SampledUsers != 4 {
		t.Errorf("Report = %+v, want a fresh build with 4 sampled users", report)
	}
	if provider.loads != 0 {
		t.Errorf("loads = %d, want the stored split ignored", provider.loads)
	}
	if provider.saves != 1 || provider.ds != ds || provider.ds == stored {
		t.Errorf("saves = %d, want the rebuilt dataset to replace the stored one", provider.saves)
	}
}

func TestPreparer_RebuildWithoutSource(t *testing.T) {
	t.Parallel()

	p := &Preparer{Provider: &memProvider{ds: sampleDataset()}, Rebuild: true, Logger: zerolog.Nop()}
	if _, _, err := p.Prepare(context.Background()); !errors.Is(err, ErrDatasetUnavailable) {
		t.Errorf("Prepare() = %v, want ErrDatasetUnavailable", err)
	}
}

func TestPreparer_Unavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    *Preparer
	}{
		{name: "build disabled", p: &Preparer{Provider: &memProvider{}, Source: gridSource(2, 2)}},
		{name: "no source", p: &Preparer{Provider: &memProvider{}, BuildIfMissing: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.p.Logger = zerolog.Nop()
			if _, _, err := tt.p.Prepare(context.Background()); !errors.Is(err, ErrDatasetUnavailable) {
				t.Errorf("Prepare() = %v, want ErrDatasetUnavailable", err)
			}
		})
	}
}

func TestPreparer_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if _, _, err := (&Preparer{}).Prepare(ctx); err == nil {
		t.Error("Prepare() without provider error = nil, want error")
	}

	loadFail := &Preparer{Provider: &memProvider{loadErr: errProviderDown}, Logger: zerolog.Nop()}
	if _, _, err := loadFail.Prepare(ctx); !errors.Is(err, errProviderDown) {
		t.Errorf("Prepare() = %v, want load error", err)
	}

	saveFail := &Preparer{
		Provider:       &memProvider{saveErr: errProviderDown},
		Source:         gridSource(2, 2),
		BuildIfMissing: true,
		Logger:         zerolog.Nop(),
	}
	if _, _, err := saveFail.Prepare(ctx); !errors.Is(err, errProviderDown) {
		t.Errorf("Prepare() = %v, want save error", err)
	}

	corrupt := &Preparer{
		Provider: &memProvider{ds: &recommend.Dataset{Train: recommend.Ratings{"u": {"i": 9}}, Test: recommend.Ratings{}}},
		Logger:   zerolog.Nop(),
	}
	if _, _, err := corrupt.Prepare(ctx); !errors.Is(err, recommend.ErrInvalidRating) {
		t.Errorf("Prepare() = %v, want ErrInvalidRating", err)
	}
}

func TestLogProgress(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	progress := LogProgress(zerolog.New(&buf))
	for i := 1; i <= 25; i++ {
		progress(PhaseRatings, i, 25)
	}
	// step is 2, so even counts plus the final file are logged
	if got := strings.Count(buf.String(), "\n"); got != 13 {
		t.Errorf("logged %d lines, want 13", got)
	}
	if !strings.Contains(buf.String(), `"phase":"split"`) {
		t.Errorf("log output missing phase: %s", buf.String())
	}
}

func TestLogProgress_PhasesLoggedSeparately(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	src := &NetflixSource{Dir: netflixDir(t), Progress: LogProgress(zerolog.New(&buf))}
	p := &Partitioner{Seed: 1, TestProbability: 0.5}
	if _, _, err := p.Partition(context.Background(), src); err != nil {
		t.Fatalf("Partition() error = %v", err)
	}

	users := strings.Count(buf.String(), `"phase":"collect-users"`)
	ratings := strings.Count(buf.String(), `"phase":"split"`)
	if users == 0 || ratings == 0 {
		t.Errorf("phase lines users/ratings = %d/%d, want both logged: %s", users, ratings, buf.String())
	}
	if users != ratings {
		t.Errorf("phase lines users/ratings = %d/%d, want one pass each", users, ratings)
	}
}
