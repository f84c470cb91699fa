package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/giftdesk/internal/api"
	"github.com/dmitrijs2005/giftdesk/internal/common"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToResponse(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"not found", common.ErrorNotFound, http.StatusNotFound, api.CodeNotFound},
		{"invalid", &common.InvalidCredentialError{RemainingAttempts: 1}, http.StatusUnauthorized, api.CodeInvalidCredential},
		{"locked wrapped", fmt.Errorf("x: %w", common.NewLockedError(4)), http.StatusLocked, api.CodeLocked},
		{"unauthorized", common.ErrorUnauthorized, http.StatusUnauthorized, api.CodeUnauthorized},
		{"validation", fmt.Errorf("%w: bad", common.ErrorValidation), http.StatusBadRequest, api.CodeValidation},
		{"rate limited", common.ErrorRateLimited, http.StatusTooManyRequests, api.CodeRateLimited},
		{"no route", echo.ErrNotFound, http.StatusNotFound, api.CodeNotFound},
		{"method", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, api.CodeValidation},
		{"other", errors.New("boom"), http.StatusInternalServerError, api.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := toResponse(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantErr, body.Error)
		})
	}
}

func TestToResponse_LockedMinutes(t *testing.T) {
	_, body := toResponse(common.NewLockedError(4))
	require.NotNil(t, body.MinutesRemaining)
	assert.Equal(t, 4, *body.MinutesRemaining)

	_, body = toResponse(common.NewLockedError(-1))
	assert.Nil(t, body.MinutesRemaining)
}
