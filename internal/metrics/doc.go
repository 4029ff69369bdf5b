// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

/*
Package metrics provides Prometheus metrics for the recommender.

All metrics are registered on the default registry through promauto and are
served by the API at /metrics.

# Available Metrics

Recommendation Metrics:
  - ratingrec_recommend_requests_total: Engine operations (counter)
    Labels: operation (similarity, neighbors, recommend, evaluate), status
  - ratingrec_recommend_duration_seconds: Operation latency (histogram)
    Labels: operation
  - ratingrec_neighbors_found: Neighbors selected per request (histogram)
  - ratingrec_cache_hits_total / ratingrec_cache_misses_total: Response cache lookups (counter)

Dataset Metrics:
  - ratingrec_dataset_users: Users per split (gauge)
    Labels: split (train, test)
  - ratingrec_dataset_ratings: Ratings per split (gauge)
    Labels: split
  - ratingrec_dataset_version: Installed dataset version (gauge)
  - ratingrec_dataset_load_duration_seconds: Load or build time (histogram)
    Labels: source (provider, partition)
  - ratingrec_dataset_load_errors_total: Failed loads (counter)
    Labels: source

Circuit Breaker Metrics:
  - ratingrec_provider_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
    Labels: provider
  - ratingrec_provider_breaker_transitions_total: State changes (counter)
    Labels: provider, from, to

Evaluation Metrics:
  - ratingrec_evaluation_precision / ratingrec_evaluation_recall: Last evaluation run (gauge)

API Metrics:
  - ratingrec_api_requests_total: Requests (counter)
    Labels: method, route, status
  - ratingrec_api_request_duration_seconds: Latency (histogram)
    Labels: method, route
  - ratingrec_api_active_requests: In-flight requests (gauge)

# Cardinality

Route labels are chi route patterns such as /api/v1/users/{userID}/neighbors,
never raw paths, so user IDs do not create series.

Example PromQL:

	# p95 recommendation latency
	histogram_quantile(0.95, rate(ratingrec_recommend_duration_seconds_bucket{operation="recommend"}[5m]))

	# Response cache hit rate
	rate(ratingrec_cache_hits_total[5m]) / (rate(ratingrec_cache_hits_total[5m]) + rate(ratingrec_cache_misses_total[5m]))
*/
package metrics
