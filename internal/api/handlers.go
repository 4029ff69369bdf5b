// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/ratingrec/internal/dataset"
	"github.com/tomtom215/ratingrec/internal/logging"
	"github.com/tomtom215/ratingrec/internal/recommend"
	"github.com/tomtom215/ratingrec/internal/validation"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

// Reloader rebuilds or reloads the dataset and installs it in the engine.
type Reloader interface {
	Reload(ctx context.Context) (dataset.Report, error)
}

// Handler serves the recommendation API.
type Handler struct {
	engine    *recommend.Engine
	reloader  Reloader
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandler creates a Handler. reloader may be nil, in which case
// POST /dataset/reload answers 503.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(engine *recommend.Engine, reloader Reloader, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:    engine,
		reloader:  reloader,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}
}

type similarityQuery struct {
	A recommend.UserID `json:"a" validate:"required,entity_id"`
	B recommend.UserID `json:"b" validate:"required,entity_id"`
}

// SimilarityResult is the body of GET /similarity.
type SimilarityResult struct {
	A          recommend.UserID `json:"a"`
	B          recommend.UserID `json:"b"`
	Similarity float64          `json:"similarity"`
}

// Similarity handles GET /api/v1/similarity?a=&b=.
func (h *Handler) Similarity(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := similarityQuery{
		A: recommend.UserID(r.URL.Query().Get("a")),
		B: recommend.UserID(r.URL.Query().Get("b")),
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		rw.ValidationFailed(verr)
		return
	}

	sim, err := h.engine.Similarity(r.Context(), q.A, q.B)
	if err != nil {
		rw.FromError(err)
		return
	}
	rw.Success(SimilarityResult{A: q.A, B: q.B, Similarity: sim})
}

// Neighbors handles GET /api/v1/users/{userID}/neighbors?k=&min_similarity=.
func (h *Handler) Neighbors(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	p, ok := parseQuery(rw, r)
	if !ok {
		return
	}

	req := recommend.NeighborsRequest{
		UserID:        recommend.UserID(chi.URLParam(r, "userID")),
		K:             p.k,
		MinSimilarity: p.minSimilarity,
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationFailed(verr)
		return
	}

	resp, err := h.engine.Neighbors(r.Context(), req)
	if err != nil {
		rw.FromError(err)
		return
	}
	rw.Success(resp)
}

// Recommendations handles
// GET /api/v1/users/{userID}/recommendations?k=&min_similarity=&n=&scores=.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	p, ok := parseQuery(rw, r)
	if !ok {
		return
	}

	req := recommend.Request{
		UserID:        recommend.UserID(chi.URLParam(r, "userID")),
		K:             p.k,
		MinSimilarity: p.minSimilarity,
		NItems:        p.n,
		WithScores:    p.scores,
		RequestID:     logging.RequestIDFromContext(r.Context()),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationFailed(verr)
		return
	}

	resp, err := h.engine.Recommend(r.Context(), req)
	if err != nil {
		rw.FromError(err)
		return
	}
	rw.SuccessCached(resp, resp.Metadata.CacheHit)
}

// evaluateBody is the POST /evaluate payload.
type evaluateBody struct {
	Users         []recommend.UserID `json:"users"`
	K             int                `json:"k"`
	MinSimilarity *float64           `json:"min_similarity"`
	N             int                `json:"n"`
}

// Evaluate handles POST /api/v1/evaluate. An empty body evaluates every
// user with test ratings using the engine defaults.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
		return
	}
	var body evaluateBody
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			rw.Error(http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body: "+err.Error())
			return
		}
	}

	req := recommend.EvalRequest{
		Users:         body.Users,
		K:             body.K,
		MinSimilarity: body.MinSimilarity,
		NItems:        body.N,
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationFailed(verr)
		return
	}

	report, err := h.engine.Evaluate(r.Context(), req)
	if err != nil {
		rw.FromError(err)
		return
	}
	h.logger.Info().
		Int("users", report.UsersEvaluated).
		Float64("precision", report.Precision).
		Float64("recall", report.Recall).
		Msg("evaluation completed")
	rw.Success(report)
}

// Dataset handles GET /api/v1/dataset.
func (h *Handler) Dataset(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	stats := h.engine.Stats()
	if !stats.Loaded {
		rw.FromError(recommend.ErrDatasetNotLoaded)
		return
	}
	rw.Success(stats)
}

// ReloadResult is the body of POST /dataset/reload.
type ReloadResult struct {
	Report         dataset.Report `json:"report"`
	DatasetVersion int64          `json:"dataset_version"`
}

// Reload handles POST /api/v1/dataset/reload.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.reloader == nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeReloadDisabled, "Dataset reload is not configured")
		return
	}

	report, err := h.reloader.Reload(r.Context())
	if err != nil {
		rw.FromError(err)
		return
	}
	h.logger.Info().Interface("report", report).Msg("dataset reloaded via API")
	rw.Success(ReloadResult{Report: report, DatasetVersion: h.engine.Stats().DatasetVersion})
}

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status         string  `json:"status"`
	DatasetLoaded  bool    `json:"dataset_loaded"`
	DatasetVersion int64   `json:"dataset_version,omitempty"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

func (h *Handler) health() HealthStatus {
	stats := h.engine.Stats()
	status := "healthy"
	if !stats.Loaded {
		status = "starting"
	}
	return HealthStatus{
		Status:         status,
		DatasetLoaded:  stats.Loaded,
		DatasetVersion: stats.DatasetVersion,
		UptimeSeconds:  time.Since(h.startTime).Seconds(),
	}
}

// Health handles GET /api/v1/health. It always answers 200 and reports
// whether a dataset is installed.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.health())
}

// HealthLive handles GET /api/v1/health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready. It answers 503 until a
// dataset is installed.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	status := h.health()
	if !status.DatasetLoaded {
		rw.Status(http.StatusServiceUnavailable, status)
		return
	}
	rw.Success(status)
}

// queryParams are the optional tuning parameters shared by the user routes.
type queryParams struct {
	k             int
	minSimilarity *float64
	n             int
	scores        bool
}

// parseQuery reads k, min_similarity, n and scores. On a malformed value it
// writes a 400 response and returns false.
func parseQuery(rw *ResponseWriter, r *http.Request) (queryParams, bool) {
	var p queryParams
	q := r.URL.Query()

	if s := q.Get("k"); s != "" {
		k, err := strconv.Atoi(s)
		if err != nil {
			rw.BadRequest("k", "k must be an integer")
			return p, false
		}
		p.k = k
	}
	if s := q.Get("min_similarity"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			rw.BadRequest("min_similarity", "min_similarity must be a number")
			return p, false
		}
		p.minSimilarity = &v
	}
	if s := q.Get("n"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			rw.BadRequest("n", "n must be an integer")
			return p, false
		}
		p.n = n
	}
	if s := q.Get("scores"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			rw.BadRequest("scores", "scores must be a boolean")
			return p, false
		}
		p.scores = b
	}
	return p, true
}
