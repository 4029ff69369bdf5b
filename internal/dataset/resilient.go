// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/ratingrec/internal/metrics"
	"github.com/tomtom215/ratingrec/internal/recommend"
)

// BreakerConfig configures the circuit breaker around a Provider.
type BreakerConfig struct {
	// MaxRequests is the number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic reset period for counts in closed state.
	Interval time.Duration

	// Timeout is the duration in open state before transitioning to half-open.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the breaker settings used by the server.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
	}
}

type loadResult struct {
	ds    *recommend.Dataset
	found bool
}

// ResilientProvider wraps a Provider with a circuit breaker. While the
// breaker is open every call fails fast with ErrProviderUnavailable.
type ResilientProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker[*loadResult]
	logger  zerolog.Logger
}

// NewResilientProvider wraps inner.
func NewResilientProvider(inner Provider, cfg BreakerConfig, logger zerolog.Logger) *ResilientProvider {
	p := &ResilientProvider{
		inner:  inner,
		logger: logger.With().Str("component", "dataset_provider").Str("provider", inner.Name()).Logger(),
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}
	p.breaker = gobreaker.NewCircuitBreaker[*loadResult](gobreaker.Settings{
		Name:        "dataset-" + inner.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Cancellation says nothing about the provider's health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Dataset provider circuit breaker changed state")
			metrics.RecordBreakerTransition(inner.Name(), from.String(), to.String())
		},
	})
	return p
}

// Name implements Provider.
func (p *ResilientProvider) Name() string { return p.inner.Name() }

// State returns the breaker state ("closed", "half-open" or "open").
func (p *ResilientProvider) State() string { return p.breaker.State().String() }

// Load implements Provider.
func (p *ResilientProvider) Load(ctx context.Context) (*recommend.Dataset, bool, error) {
	res, err := p.breaker.Execute(func() (*loadResult, error) {
		ds, found, err := p.inner.Load(ctx)
		if err != nil {
			return nil, err
		}
		return &loadResult{ds: ds, found: found}, nil
	})
	if err != nil {
		return nil, false, p.wrap(err)
	}
	return res.ds, res.found, nil
}

// Save implements Provider.
func (p *ResilientProvider) Save(ctx context.Context, ds *recommend.Dataset) error {
	_, err := p.breaker.Execute(func() (*loadResult, error) {
		return nil, p.inner.Save(ctx, ds)
	})
	return p.wrap(err)
}

// Close implements Provider.
func (p *ResilientProvider) Close() error { return p.inner.Close() }

func (p *ResilientProvider) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %w", ErrProviderUnavailable, p.inner.Name(), err)
	}
	return err
}
