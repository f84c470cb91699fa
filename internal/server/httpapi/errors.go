package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/giftdesk/internal/api"
	"github.com/dmitrijs2005/giftdesk/internal/common"
	"github.com/dmitrijs2005/giftdesk/internal/logging"
	"github.com/labstack/echo/v4"
)

// toResponse maps a service error onto a status code and wire body.
// Unclassified errors become 500 without leaking their text.
func toResponse(err error) (int, api.ErrorResponse) {
	var (
		ice *common.InvalidCredentialError
		le  *common.LockedError
		he  *echo.HTTPError
	)

	switch {
	case errors.As(err, &ice):
		n := ice.RemainingAttempts
		return http.StatusUnauthorized, api.ErrorResponse{Error: api.CodeInvalidCredential, Message: "incorrect, please try again", RemainingAttempts: &n}
	case errors.As(err, &le):
		return http.StatusLocked, api.ErrorResponse{Error: api.CodeLocked, Message: le.Error(), MinutesRemaining: le.MinutesRemaining}
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, api.ErrorResponse{Error: api.CodeNotFound, Message: "employee not found"}
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, api.ErrorResponse{Error: api.CodeUnauthorized, Message: "session is not valid"}
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, api.ErrorResponse{Error: api.CodeValidation, Message: err.Error()}
	case errors.Is(err, common.ErrorRateLimited):
		return http.StatusTooManyRequests, api.ErrorResponse{Error: api.CodeRateLimited, Message: "too many requests"}
	case errors.As(err, &he):
		switch he.Code {
		case http.StatusNotFound:
			return he.Code, api.ErrorResponse{Error: api.CodeNotFound, Message: "no such route"}
		case http.StatusMethodNotAllowed:
			return he.Code, api.ErrorResponse{Error: api.CodeValidation, Message: "method not allowed"}
		}
	}
	return http.StatusInternalServerError, api.ErrorResponse{Error: api.CodeInternal, Message: "internal error"}
}

func errorHandler(logger logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := toResponse(err)
		if code >= http.StatusInternalServerError {
			logger.Error(c.Request().Context(), "request failed", "path", c.Path(), "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Error(c.Request().Context(), "write error response", "error", err)
		}
	}
}
