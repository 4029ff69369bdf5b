// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/ratingrec/internal/cache"
	"github.com/tomtom215/ratingrec/internal/metrics"
)

// Engine serves similarity, neighbor and recommendation requests against the
// currently installed Dataset. It is safe for concurrent use.
//
// SetDataset swaps the dataset atomically. Requests already in flight finish
// against the snapshot they started with.
type Engine struct {
	config *Config
	logger zerolog.Logger

	snapshot atomic.Pointer[snapshot]
	versions atomic.Int64

	cache *cache.LRU[*Response]

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	errorCount   atomic.Int64
}

// snapshot is an installed dataset and its version.
type snapshot struct {
	dataset  *Dataset
	stats    DatasetStats
	version  int64
	loadedAt time.Time
}

// Stats holds engine counters and the installed dataset's size. Requests
// and Errors cover every operation: similarity, neighbors, recommend and
// evaluate.
type Stats struct {
	Requests       int64        `json:"requests"`
	CacheHits      int64        `json:"cache_hits"`
	CacheMisses    int64        `json:"cache_misses"`
	Errors         int64        `json:"errors"`
	Loaded         bool         `json:"loaded"`
	DatasetVersion int64        `json:"dataset_version"`
	LoadedAt       time.Time    `json:"loaded_at,omitempty"`
	Dataset        DatasetStats `json:"dataset"`
}

// NewEngine creates a recommendation engine. A nil cfg uses DefaultConfig.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		config: cfg.Clone(),
		logger: logger.With().Str("component", "recommend").Logger(),
	}
	if cfg.Cache.Enabled {
		e.cache = cache.NewLRU[*Response](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// SetDataset validates ds and installs it, replacing any previous dataset
// and clearing the response cache.
func (e *Engine) SetDataset(ds *Dataset) error {
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("set dataset: %w", err)
	}

	snap := &snapshot{
		dataset:  ds,
		stats:    ds.Stats(),
		version:  e.versions.Add(1),
		loadedAt: time.Now(),
	}
	e.snapshot.Store(snap)
	if e.cache != nil {
		e.cache.Clear()
	}

	metrics.SetDatasetSize(snap.stats.TrainUsers, snap.stats.TestUsers,
		snap.stats.TrainRatings, snap.stats.TestRatings, snap.version)

	e.logger.Info().
		Int64("version", snap.version).
		Int("train_users", snap.stats.TrainUsers).
		Int("test_users", snap.stats.TestUsers).
		Int("train_ratings", snap.stats.TrainRatings).
		Int("test_ratings", snap.stats.TestRatings).
		Msg("dataset installed")
	return nil
}

// Dataset returns the installed dataset and its version.
// The returned dataset must be treated as read-only.
func (e *Engine) Dataset() (*Dataset, int64, error) {
	snap := e.snapshot.Load()
	if snap == nil {
		return nil, 0, ErrDatasetNotLoaded
	}
	return snap.dataset, snap.version, nil
}

// Ready reports whether a dataset is installed.
func (e *Engine) Ready() bool {
	return e.snapshot.Load() != nil
}

// Similarity returns the Pearson similarity of two users' train vectors.
func (e *Engine) Similarity(ctx context.Context, a, b UserID) (sim float64, err error) {
	start := time.Now()
	defer func() { e.observe("similarity", start, err) }()

	snap, err := e.current()
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	va, ok := snap.dataset.Train[a]
	if !ok {
		return 0, &UserNotFoundError{UserID: a}
	}
	vb, ok := snap.dataset.Train[b]
	if !ok {
		return 0, &UserNotFoundError{UserID: b}
	}
	return Pearson(va, vb), nil
}

// Neighbors returns the target user's neighbors.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Neighbors(ctx context.Context, req NeighborsRequest) (resp *NeighborsResponse, err error) {
	start := time.Now()
	defer func() { e.observe("neighbors", start, err) }()

	snap, err := e.current()
	if err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, &UserNotFoundError{}
	}

	k, minSim := e.resolveNeighborParams(req.K, req.MinSimilarity)
	neighbors, err := selectNeighbors(ctx, req.UserID, snap.dataset.Train, k, minSim, e.config.Neighbors.Workers)
	if err != nil {
		return nil, fmt.Errorf("select neighbors: %w", err)
	}
	metrics.NeighborsFound.Observe(float64(len(neighbors)))

	return &NeighborsResponse{
		Neighbors:      neighbors,
		K:              k,
		MinSimilarity:  minSim,
		DatasetVersion: snap.version,
	}, nil
}

// Recommend generates recommendations for a user.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (resp *Response, err error) {
	start := time.Now()
	defer func() { e.observe("recommend", start, err) }()

	snap, err := e.current()
	if err != nil {
		return nil, err
	}

	req = e.prepareRequest(req)
	k, minSim := e.resolveNeighborParams(req.K, req.MinSimilarity)
	nItems := e.resolveNItems(req.NItems)

	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", string(req.UserID)).
		Logger()
	logger.Debug().Msg("processing recommendation request")

	key := cacheKey(snap.version, req.UserID, k, minSim, nItems, req.WithScores)
	if cached := e.lookupCache(key); cached != nil {
		out := cloneResponse(cached)
		out.Metadata.RequestID = req.RequestID
		out.Metadata.CacheHit = true
		out.Metadata.LatencyMS = time.Since(start).Milliseconds()
		out.Metadata.Timestamp = time.Now()
		logger.Debug().Msg("cache hit")
		return out, nil
	}

	res, err := GetRecommendations(ctx, req.UserID, snap.dataset.Train, Options{
		K:             k,
		MinSimilarity: minSim,
		NItems:        nItems,
		WithScores:    req.WithScores,
		Workers:       e.config.Neighbors.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}
	metrics.NeighborsFound.Observe(float64(len(res.Neighbors)))

	resp = &Response{
		Items:  res.Items,
		Scored: res.Scored,
		Metadata: ResponseMetadata{
			RequestID:      req.RequestID,
			UserID:         req.UserID,
			K:              k,
			MinSimilarity:  minSim,
			NItems:         nItems,
			Neighbors:      len(res.Neighbors),
			LatencyMS:      time.Since(start).Milliseconds(),
			DatasetVersion: snap.version,
			Timestamp:      time.Now(),
		},
	}
	if e.cache != nil {
		e.cache.Set(key, cloneResponse(resp))
	}

	logger.Debug().
		Int("neighbors", len(res.Neighbors)).
		Int("returned", len(res.Items)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// Evaluate runs an offline top-N evaluation against the test split.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Evaluate(ctx context.Context, req EvalRequest) (report *EvalReport, err error) {
	start := time.Now()
	defer func() { e.observe("evaluate", start, err) }()

	snap, err := e.current()
	if err != nil {
		return nil, err
	}

	k, minSim := e.resolveNeighborParams(req.K, req.MinSimilarity)
	nItems := e.resolveNItems(req.NItems)

	report, err = Evaluate(ctx, snap.dataset, req.Users, Options{
		K:             k,
		MinSimilarity: minSim,
		NItems:        nItems,
		Workers:       e.config.Neighbors.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	report.DatasetVersion = snap.version
	metrics.SetEvaluation(report.Precision, report.Recall)

	e.logger.Info().
		Int("users", report.UsersEvaluated).
		Int("skipped", report.UsersSkipped).
		Float64("precision", report.Precision).
		Float64("recall", report.Recall).
		Float64("coverage", report.Coverage).
		Dur("elapsed", time.Since(start)).
		Msg("evaluation complete")
	return report, nil
}

// Stats returns engine counters.
func (e *Engine) Stats() Stats {
	s := Stats{
		Requests:    e.requestCount.Load(),
		CacheHits:   e.cacheHits.Load(),
		CacheMisses: e.cacheMisses.Load(),
		Errors:      e.errorCount.Load(),
	}
	if snap := e.snapshot.Load(); snap != nil {
		s.Loaded = true
		s.DatasetVersion = snap.version
		s.LoadedAt = snap.loadedAt
		s.Dataset = snap.stats
	}
	return s
}

func (e *Engine) current() (*snapshot, error) {
	snap := e.snapshot.Load()
	if snap == nil {
		return nil, ErrDatasetNotLoaded
	}
	return snap, nil
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	return req
}

// resolveNeighborParams applies configured defaults and clamps k to Limits.MaxK.
func (e *Engine) resolveNeighborParams(k int, minSim *float64) (int, float64) {
	if k <= 0 {
		k = e.config.Neighbors.K
	}
	if k > e.config.Limits.MaxK {
		k = e.config.Limits.MaxK
	}
	threshold := e.config.Neighbors.MinSimilarity
	if minSim != nil {
		threshold = *minSim
	}
	return k, threshold
}

func (e *Engine) resolveNItems(n int) int {
	if n <= 0 {
		n = e.config.Limits.NItems
	}
	if n > e.config.Limits.MaxNItems {
		n = e.config.Limits.MaxNItems
	}
	return n
}

func (e *Engine) lookupCache(key string) *Response {
	if e.cache == nil {
		return nil
	}
	resp, ok := e.cache.Get(key)
	metrics.RecordCacheLookup(ok)
	if !ok {
		e.cacheMisses.Add(1)
		return nil
	}
	e.cacheHits.Add(1)
	return resp
}

// observe records the operation's outcome.
// observe counts every engine operation, successful or not.
func (e *Engine) observe(operation string, start time.Time, err error) {
	e.requestCount.Add(1)
	if err != nil {
		e.errorCount.Add(1)
	}
	metrics.RecordOperation(operation, statusOf(err), time.Since(start))
}

// cloneResponse copies r so that cached entries never share slices with
// responses handed to callers.
func cloneResponse(r *Response) *Response {
	out := *r
	out.Items = slices.Clone(r.Items)
	out.Scored = slices.Clone(r.Scored)
	return &out
}

// statusOf maps an error to a metrics status label.
func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isUserNotFound(err):
		return "not_found"
	case errors.Is(err, ErrInvalidRating), errors.Is(err, ErrInvalidDataset):
		return "invalid"
	case errors.Is(err, ErrDatasetNotLoaded):
		return "not_ready"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func cacheKey(version int64, user UserID, k int, minSim float64, nItems int, withScores bool) string {
	return strconv.FormatInt(version, 10) + "|" + string(user) + "|" +
		strconv.Itoa(k) + "|" + strconv.FormatFloat(minSim, 'g', -1, 64) + "|" +
		strconv.Itoa(nItems) + "|" + strconv.FormatBool(withScores)
}
