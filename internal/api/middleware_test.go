// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tomtom215/ratingrec/internal/logging"
	"github.com/tomtom215/ratingrec/internal/recommend"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	tests := []struct {
		name     string
		incoming string
		wantKeep bool
	}{
		{name: "propagated", incoming: "req-123", wantKeep: true},
		{name: "generated", incoming: ""},
		{name: "oversized replaced", incoming: strings.Repeat("x", maxRequestIDLen+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			if got == "" || got != seen {
				t.Fatalf("header %q, context %q", got, seen)
			}
			if (got == tt.incoming) != tt.wantKeep {
				t.Errorf("request ID = %q, incoming %q, want kept = %v", got, tt.incoming, tt.wantKeep)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	mw := NewMiddleware(&MiddlewareConfig{
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	})
	handler := mw.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [204 204 429]", codes)
	}

	// Another client has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.11:5000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("second client code = %d, want 204", w.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	t.Parallel()

	mw := NewMiddleware(&MiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute, RateLimitDisabled: true})
	handler := mw.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("request %d code = %d, want 204", i, w.Code)
		}
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	mw := NewMiddleware(&MiddlewareConfig{RequestTimeout: 20 * time.Millisecond})
	handler := mw.Timeout()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		NewResponseWriter(w, r).FromError(r.Context().Err())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusGatewayTimeout || !strings.Contains(w.Body.String(), ErrCodeTimeout) {
		t.Errorf("code = %d body = %s", w.Code, w.Body.String())
	}
}

func TestTimeout_Disabled(t *testing.T) {
	t.Parallel()

	mw := NewMiddleware(&MiddlewareConfig{})
	handler := mw.Timeout()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); ok {
			t.Error("deadline set with timeout disabled")
		}
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, true)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/similarity", nil)
	req.Header.Set("Origin", "https://ui.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRoutePattern(t *testing.T) {
	t.Parallel()

	var got string
	r := chi.NewRouter()
	r.Get("/users/{userID}/neighbors", func(_ http.ResponseWriter, req *http.Request) {
		got = routePattern(req)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/1488844/neighbors", nil))
	if got != "/users/{userID}/neighbors" {
		t.Errorf("routePattern() = %q", got)
	}

	if p := routePattern(httptest.NewRequest(http.MethodGet, "/x", nil)); p != "unmatched" {
		t.Errorf("routePattern() without chi context = %q, want unmatched", p)
	}
}

func TestStatusRecorder(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
	rec.WriteHeader(http.StatusTeapot)
	rec.WriteHeader(http.StatusInternalServerError)
	if rec.statusCode != http.StatusTeapot {
		t.Errorf("statusCode = %d, want first written code", rec.statusCode)
	}
	if rec.Unwrap() != w {
		t.Error("Unwrap() should return the wrapped writer")
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, true)

	w, env := s.do(t, http.MethodGet, "/api/v1/nope", "")
	if w.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("unknown route: %d %+v", w.Code, env.Error)
	}

	w, env = s.do(t, http.MethodDelete, "/api/v1/similarity", "")
	if w.Code != http.StatusMethodNotAllowed || env.Error == nil || env.Error.Code != ErrCodeMethodNotAllowed {
		t.Errorf("wrong method: %d %+v", w.Code, env.Error)
	}
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, true)

	s.do(t, http.MethodGet, "/api/v1/users/alice/neighbors", "")

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics code = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `route="/api/v1/users/{userID}/neighbors"`) {
		t.Error("/metrics missing templated route label for the neighbors request")
	}
	if strings.Contains(body, `route="/api/v1/users/alice/neighbors"`) {
		t.Error("/metrics leaked a raw user ID into the route label")
	}
}

func TestRouter_RequestTimeout(t *testing.T) {
	t.Parallel()

	engine, err := recommend.NewEngine(nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.SetDataset(testDataset()); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultMiddlewareConfig()
	cfg.RequestTimeout = time.Nanosecond
	handler := NewRouter(NewHandler(engine, nil, zerolog.Nop()), cfg).Setup()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/neighbors", nil)
	handler.ServeHTTP(w, req.WithContext(context.Background()))
	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("code = %d, want 504 (body %s)", w.Code, w.Body.String())
	}
}
