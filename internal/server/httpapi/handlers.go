package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/giftdesk/internal/api"
	"github.com/dmitrijs2005/giftdesk/internal/logging"
	"github.com/dmitrijs2005/giftdesk/internal/server/auth"
	"github.com/dmitrijs2005/giftdesk/internal/server/models"
	"github.com/dmitrijs2005/giftdesk/internal/server/services"
	"github.com/labstack/echo/v4"
)

type handlers struct {
	auth   AuthService
	logger logging.Logger
}

func (h *handlers) ping(c echo.Context) error {
	return c.JSON(http.StatusOK, api.PingResponse{Status: "OK"})
}

func (h *handlers) identify(c echo.Context) error {
	var req api.IdentifyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	id, err := h.auth.Identify(c.Request().Context(), req.EmployeeID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, api.IdentifyResponse{
		FirstName:        id.FirstName,
		LastName:         id.LastName,
		MaskedEmployeeID: id.MaskedEmployeeID,
	})
}

func (h *handlers) verify(c echo.Context) error {
	var req api.VerifyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	s, err := h.auth.Verify(c.Request().Context(), req.EmployeeID, req.YearOfBirth)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, issuedResponse(s))
}

func (h *handlers) requestCode(c echo.Context) error {
	var req api.RequestCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	d, err := h.auth.RequestCode(c.Request().Context(), req.EmployeeID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, api.RequestCodeResponse{MaskedEmail: d.MaskedEmail, ExpiresAt: d.ExpiresAt})
}

func (h *handlers) verifyCode(c echo.Context) error {
	var req api.VerifyCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	s, err := h.auth.VerifyCode(c.Request().Context(), req.EmployeeID, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, issuedResponse(s))
}

func (h *handlers) session(c echo.Context) error {
	info, ok := c.Get(ContextKeySession).(*services.SessionInfo)
	if !ok || info == nil {
		return echo.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, api.SessionResponse{
		Employee:  employeeResponse(info.Employee),
		ExpiresAt: info.ExpiresAt,
	})
}

// logout always answers 200: the client clears its local state regardless,
// and unknown tokens are already logged out.
func (h *handlers) logout(c echo.Context) error {
	token := bearerToken(c)
	if err := h.auth.Logout(c.Request().Context(), token); err != nil {
		h.logger.Warn(c.Request().Context(), "logout failed", "token_ref", auth.TokenRef(token), "error", err)
	}
	return c.JSON(http.StatusOK, struct{}{})
}

func issuedResponse(s *services.IssuedSession) api.SessionResponse {
	return api.SessionResponse{
		Token:     s.Token,
		Employee:  employeeResponse(s.Employee),
		ExpiresAt: s.ExpiresAt,
	}
}

func employeeResponse(p models.EmployeeProfile) api.Employee {
	return api.Employee{
		EmployeeID:    p.EmployeeID,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		PointsBalance: p.PointsBalance,
		IsNewUser:     p.IsNewUser,
	}
}
