// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ratingrec/internal/dataset"
	"github.com/tomtom215/ratingrec/internal/logging"
	"github.com/tomtom215/ratingrec/internal/recommend"
	"github.com/tomtom215/ratingrec/internal/validation"
)

// Error codes returned in APIError.Code.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeDatasetNotReady  = "DATASET_NOT_READY"
	ErrCodeProviderDown     = "PROVIDER_UNAVAILABLE"
	ErrCodeReloadDisabled   = "RELOAD_UNAVAILABLE"
	ErrCodeInvalidDataset   = "INVALID_DATASET"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata describes how a response was produced.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is the machine-readable error body.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ResponseWriter writes enveloped JSON responses for one request.
type ResponseWriter struct {
	w         http.ResponseWriter
	r         *http.Request
	startTime time.Time
}

// NewResponseWriter creates a ResponseWriter. Query time is measured from here.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r, startTime: time.Now()}
}

// Success writes a 200 response carrying data.
func (rw *ResponseWriter) Success(data interface{}) {
	rw.write(http.StatusOK, data, false, nil)
}

// SuccessCached writes a 200 response and flags whether it came from cache.
func (rw *ResponseWriter) SuccessCached(data interface{}, cached bool) {
	rw.write(http.StatusOK, data, cached, nil)
}

// Status writes data with an explicit status code.
func (rw *ResponseWriter) Status(statusCode int, data interface{}) {
	rw.write(statusCode, data, false, nil)
}

// Error writes an error response.
func (rw *ResponseWriter) Error(statusCode int, code, message string) {
	rw.ErrorWithDetails(statusCode, code, message, nil)
}

// ErrorWithDetails writes an error response with additional details.
func (rw *ResponseWriter) ErrorWithDetails(statusCode int, code, message string, details map[string]interface{}) {
	rw.write(statusCode, nil, false, &APIError{Code: code, Message: message, Details: details})
}

// BadRequest writes a 400 response for a malformed parameter.
func (rw *ResponseWriter) BadRequest(param, message string) {
	rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, message,
		map[string]interface{}{"field": param})
}

// ValidationFailed writes a 400 response for failed struct validation.
func (rw *ResponseWriter) ValidationFailed(verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
}

// FromError maps a service error to a status code and error code.
func (rw *ResponseWriter) FromError(err error) {
	status, code, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(rw.r.Context()).Error().Err(err).
			Str("code", code).
			Str("path", rw.r.URL.Path).
			Msg("request failed")
	}

	var details map[string]interface{}
	var notFound *recommend.UserNotFoundError
	if errors.As(err, &notFound) {
		details = map[string]interface{}{"user_id": notFound.UserID}
	}
	rw.ErrorWithDetails(status, code, message, details)
}

func classifyError(err error) (status int, code, message string) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrCodeValidation, verr.Error()
	case errors.Is(err, recommend.ErrUserNotFound):
		return http.StatusNotFound, ErrCodeUserNotFound, err.Error()
	case errors.Is(err, recommend.ErrDatasetNotLoaded):
		return http.StatusServiceUnavailable, ErrCodeDatasetNotReady, "Dataset is not loaded yet"
	case errors.Is(err, dataset.ErrProviderUnavailable):
		return http.StatusServiceUnavailable, ErrCodeProviderDown, "Dataset provider is unavailable"
	case errors.Is(err, dataset.ErrDatasetUnavailable):
		return http.StatusServiceUnavailable, ErrCodeDatasetNotReady, "No dataset is available"
	case errors.Is(err, recommend.ErrInvalidDataset), errors.Is(err, recommend.ErrInvalidRating):
		return http.StatusUnprocessableEntity, ErrCodeInvalidDataset, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeTimeout, "Request timed out"
	default:
		return http.StatusInternalServerError, ErrCodeInternal, "Internal server error"
	}
}

func (rw *ResponseWriter) write(statusCode int, data interface{}, cached bool, apiErr *APIError) {
	status := "success"
	if apiErr != nil {
		status = "error"
	}
	response := APIResponse{
		Status: status,
		Data:   data,
		Metadata: Metadata{
			Timestamp:   time.Now().UTC(),
			RequestID:   logging.RequestIDFromContext(rw.r.Context()),
			QueryTimeMS: time.Since(rw.startTime).Milliseconds(),
			Cached:      cached,
		},
		Error: apiErr,
	}

	body, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		rw.w.WriteHeader(http.StatusInternalServerError)
		return
	}

	rw.w.Header().Set("Content-Type", "application/json")
	rw.w.Header().Set("Cache-Control", "no-store")
	rw.w.WriteHeader(statusCode)
	if _, err := rw.w.Write(body); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}
