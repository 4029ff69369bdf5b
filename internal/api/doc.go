// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

/*
Package api serves the recommendation engine over HTTP.

Routes, all under /api/v1 except /metrics:

	GET  /similarity?a=&b=
	GET  /users/{userID}/neighbors?k=&min_similarity=
	GET  /users/{userID}/recommendations?k=&min_similarity=&n=&scores=
	POST /evaluate
	GET  /dataset
	POST /dataset/reload
	GET  /health, /health/live, /health/ready
	GET  /metrics

Every JSON response uses the APIResponse envelope:

	{"status": "success"|"error", "data": ..., "metadata": {...}, "error": {...}}

Engine errors map to status codes in classifyError: an unknown user is 404
USER_NOT_FOUND, a missing dataset is 503 DATASET_NOT_READY, an expired
request context is 504 TIMEOUT and failed validation is 400
VALIDATION_ERROR.
*/
package api
