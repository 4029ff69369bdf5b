// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for:
// - Recommendation operations (similarity, neighbors, recommend, evaluate)
// - Response cache efficiency
// - Dataset size and load time
// - Dataset provider circuit breaker state
// - API endpoint latency and throughput

const namespace = "ratingrec"

var (
	// Recommendation Metrics
	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_requests_total",
			Help:      "Total number of engine operations by outcome",
		},
		[]string{"operation", "status"}, // status: "ok", "not_found", "invalid", "error"
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "Duration of engine operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	NeighborsFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "neighbors_found",
			Help:      "Number of neighbors above the similarity threshold per request",
			Buckets:   []float64{0, 1, 2, 5, 10, 15, 25, 50, 100, 200},
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of recommendation cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of recommendation cache misses",
		},
	)

	// Dataset Metrics
	DatasetUsers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_users",
			Help:      "Number of users in the installed dataset",
		},
		[]string{"split"}, // "train", "test"
	)

	DatasetRatings = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_ratings",
			Help:      "Number of ratings in the installed dataset",
		},
		[]string{"split"},
	)

	DatasetVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_version",
			Help:      "Version counter of the installed dataset",
		},
	)

	DatasetLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time to obtain a dataset, by source",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"source"}, // "provider", "partition"
	)

	DatasetLoadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_load_errors_total",
			Help:      "Total number of failed dataset loads, by source",
		},
		[]string{"source"},
	)

	// Provider Circuit Breaker Metrics
	ProviderBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_breaker_state",
			Help:      "Dataset provider circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	ProviderBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_breaker_transitions_total",
			Help:      "Total number of circuit breaker state transitions",
		},
		[]string{"provider", "from", "to"},
	)

	// Evaluation Metrics
	EvaluationPrecision = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "evaluation_precision",
			Help:      "Precision@N of the last offline evaluation",
		},
	)

	EvaluationRecall = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "evaluation_recall",
			Help:      "Recall@N of the last offline evaluation",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_active_requests",
			Help:      "Number of in-flight API requests",
		},
	)
)

// RecordOperation records the outcome and duration of an engine operation.
func RecordOperation(operation, status string, duration time.Duration) {
	RecommendRequestsTotal.WithLabelValues(operation, status).Inc()
	RecommendDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheLookup records a response cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheHits.Inc()
	} else {
		CacheMisses.Inc()
	}
}

// SetDatasetSize updates the dataset gauges.
func SetDatasetSize(trainUsers, testUsers, trainRatings, testRatings int, version int64) {
	DatasetUsers.WithLabelValues("train").Set(float64(trainUsers))
	DatasetUsers.WithLabelValues("test").Set(float64(testUsers))
	DatasetRatings.WithLabelValues("train").Set(float64(trainRatings))
	DatasetRatings.WithLabelValues("test").Set(float64(testRatings))
	DatasetVersion.Set(float64(version))
}

// RecordDatasetLoad records how long a dataset source took and whether it failed.
func RecordDatasetLoad(source string, duration time.Duration, err error) {
	DatasetLoadDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		DatasetLoadErrors.WithLabelValues(source).Inc()
	}
}

// RecordBreakerTransition records a circuit breaker state change.
// States are "closed", "half-open" and "open".
func RecordBreakerTransition(provider, from, to string) {
	ProviderBreakerTransitions.WithLabelValues(provider, from, to).Inc()
	ProviderBreakerState.WithLabelValues(provider).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// SetEvaluation publishes the last evaluation's accuracy.
func SetEvaluation(precision, recall float64) {
	EvaluationPrecision.Set(precision)
	EvaluationRecall.Set(recall)
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
