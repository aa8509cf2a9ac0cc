package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeValidationRange, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeDuplicateRequest, http.StatusConflict},
		{ErrCodeInvalidTimeZone, http.StatusUnprocessableEntity},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"INVALID_TIME_ZONE", ErrCodeInvalidTimeZone},
		{"DUPLICATE_REQUEST", ErrCodeDuplicateRequest},
		{ErrCodeNotFound, ErrCodeNotFound},
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestEveryDomainCodeHasStatus(t *testing.T) {
	for domainCode, apiCode := range domainCodes {
		_, ok := ErrorCodeHTTPStatus[apiCode]
		assert.True(t, ok, "%s maps to %s which has no HTTP status", domainCode, apiCode)
	}
}

func TestResponseEnvelope(t *testing.T) {
	raw, err := json.Marshal(NewSuccessResponse(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":null}`, string(raw))

	raw, err = json.Marshal(NewValidationErrorResponse("Invalid request", "req-1", []FieldError{{Field: "days_ahead", Message: "must be at most 28"}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"data": null,
		"error": {
			"code": "ERR_VALIDATION",
			"message": "Invalid request",
			"request_id": "req-1",
			"details": [{"field": "days_ahead", "message": "must be at most 28"}]
		}
	}`, string(raw))
}
