// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package validation

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	UserID string   `json:"user_id" validate:"required,entity_id"`
	K      int      `json:"k,omitempty" validate:"gte=0,lte=200"`
	Users  []string `json:"users,omitempty" validate:"omitempty,max=2,dive,entity_id"`
	Mode   string   `koanf:"mode" validate:"omitempty,oneof=json badger"`
}

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     sampleRequest
		wantField string
		wantMsg   string
	}{
		{name: "valid", input: sampleRequest{UserID: "1488844", K: 15, Users: []string{"a", "b"}, Mode: "json"}},
		{name: "missing user", input: sampleRequest{}, wantField: "user_id", wantMsg: "user_id is required"},
		{name: "slash in user", input: sampleRequest{UserID: "a/b"}, wantField: "user_id", wantMsg: "without spaces"},
		{name: "space in user", input: sampleRequest{UserID: "a b"}, wantField: "user_id", wantMsg: "without spaces"},
		{name: "long user", input: sampleRequest{UserID: strings.Repeat("x", 129)}, wantField: "user_id"},
		{name: "negative k", input: sampleRequest{UserID: "u", K: -1}, wantField: "k", wantMsg: "k must be greater than or equal to 0"},
		{name: "k too large", input: sampleRequest{UserID: "u", K: 201}, wantField: "k", wantMsg: "k must be less than or equal to 200"},
		{name: "too many users", input: sampleRequest{UserID: "u", Users: []string{"a", "b", "c"}}, wantField: "users", wantMsg: "at most 2 entries"},
		{name: "bad user in list", input: sampleRequest{UserID: "u", Users: []string{"a", ""}}, wantField: "users[1]"},
		{name: "koanf name", input: sampleRequest{UserID: "u", Mode: "sqlite"}, wantField: "mode", wantMsg: "mode must be one of: json badger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(&tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("ValidateStruct() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if got := err.Errors()[0].Field(); got != tt.wantField {
				t.Errorf("Field() = %q, want %q", got, tt.wantField)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&sampleRequest{}).ToAPIError()
	if single.Code != "VALIDATION_ERROR" || single.Details["field"] != "user_id" {
		t.Errorf("single ToAPIError() = %+v", single)
	}

	multi := ValidateStruct(&sampleRequest{K: -1}).ToAPIError()
	fields, ok := multi.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("multi ToAPIError().Details = %+v, want 2 fields", multi.Details)
	}
	if !strings.Contains(multi.Message, "; ") {
		t.Errorf("multi message = %q, want joined messages", multi.Message)
	}

	empty := (&RequestValidationError{}).ToAPIError()
	if empty.Message != "Validation failed" {
		t.Errorf("empty ToAPIError().Message = %q", empty.Message)
	}
}
