package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "invalid request with error",
			err:        InvalidRequestWithError(fmt.Errorf("unexpected EOF")),
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidRequest,
			wantMsg:    "Invalid request format",
		},
		{
			name:       "field validation",
			err:        ErrValidation("group", "is required"),
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidationFailed,
			wantMsg:    "Request validation failed",
		},
		{
			name:       "not found",
			err:        NotFoundError("office GOVERNOR"),
			wantStatus: http.StatusNotFound,
			wantCode:   CodeNotFound,
			wantMsg:    "office GOVERNOR not found",
		},
		{
			name:       "dataset not found",
			err:        DatasetNotFoundError("unknown dataset: weather"),
			wantStatus: http.StatusNotFound,
			wantCode:   CodeDatasetNotFound,
			wantMsg:    "Dataset not found",
		},
		{
			name:       "unknown column",
			err:        UnknownColumnError(`unknown column: "Colour"`),
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidParameter,
			wantMsg:    "Unknown column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestErrValidation_Details(t *testing.T) {
	err := ErrValidation("top", "must be at most 1000")

	details, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "top", details.Field)
	assert.Equal(t, "must be at most 1000", details.Message)
}

func TestAPIError_ErrorsAs(t *testing.T) {
	notFound := DatasetNotFoundError("weather")
	wrapped := fmt.Errorf("handler: %w", notFound)

	var apiErr *APIError
	require.True(t, stderrors.As(wrapped, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.True(t, stderrors.Is(wrapped, notFound))
}
