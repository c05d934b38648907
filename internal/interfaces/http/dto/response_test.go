package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSuccessResponseWithMeta(t *testing.T) {
	cases := []struct {
		name           string
		total          int64
		page, pageSize int
		wantPages      int
	}{
		{"exact division", 40, 1, 20, 2},
		{"remainder adds a page", 41, 1, 20, 3},
		{"empty result", 0, 1, 20, 0},
		{"zero page falls back to defaults", 5, 0, 0, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta(nil, tc.total, tc.page, tc.pageSize)

			assert.True(t, resp.Success)
			require.NotNil(t, resp.Meta)
			assert.Equal(t, tc.total, resp.Meta.Total)
			assert.Equal(t, tc.wantPages, resp.Meta.TotalPages)
		})
	}
}

func TestMapDomainCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, MapDomainCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeAlreadyExists, MapDomainCode("ALREADY_EXISTS"))
	assert.Equal(t, ErrCodeInvalidState, MapDomainCode("INVALID_STATE"))
	assert.Equal(t, ErrCodeConcurrencyConflict, MapDomainCode("CONCURRENCY_CONFLICT"))
	assert.Equal(t, ErrCodeInternal, MapDomainCode("SOMETHING_ELSE"))
}

func TestGetHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(ErrCodeNotFound))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(ErrCodeConcurrencyConflict))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(ErrCodeInvalidState))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("ERR_NOBODY_KNOWS"))
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
		{Field: "name", Message: "This field is required"},
	})

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "name", resp.Error.Details[0].Field)
}
