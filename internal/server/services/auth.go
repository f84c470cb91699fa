package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/giftdesk/internal/common"
	"github.com/dmitrijs2005/giftdesk/internal/logging"
	"github.com/dmitrijs2005/giftdesk/internal/server/auth"
	"github.com/dmitrijs2005/giftdesk/internal/server/models"
)

// Factors reported to the Recorder.
const (
	FactorBirthYear = "birth_year"
	FactorOTP       = "otp"
)

// Recorder receives authentication events for metrics.
type Recorder interface {
	Verification(factor, outcome string)
	SessionIssued()
	SessionInvalidated()
	SessionsPurged(n int64)
}

type nopRecorder struct{}

func (nopRecorder) Verification(string, string) {}
func (nopRecorder) SessionIssued()              {}
func (nopRecorder) SessionInvalidated()         {}
func (nopRecorder) SessionsPurged(int64)        {}

// AuthService is the use-case surface consumed by the transport layer:
// it verifies a factor, then issues a session for the verified employee.
type AuthService struct {
	credentials *CredentialService
	sessions    *SessionService
	recorder    Recorder
	logger      logging.Logger
}

func NewAuthService(c *CredentialService, s *SessionService, rec Recorder, logger logging.Logger) *AuthService {
	if rec == nil {
		rec = nopRecorder{}
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &AuthService{credentials: c, sessions: s, recorder: rec, logger: logger}
}

func (a *AuthService) Identify(ctx context.Context, employeeID string) (*Identity, error) {
	return a.credentials.Identify(ctx, employeeID)
}

// Verify checks the birth year and issues a session on success.
func (a *AuthService) Verify(ctx context.Context, employeeID string, yearOfBirth int) (*IssuedSession, error) {
	e, err := a.credentials.VerifyBirthYear(ctx, employeeID, yearOfBirth)
	a.record(ctx, FactorBirthYear, employeeID, err)
	if err != nil {
		return nil, err
	}
	return a.issue(ctx, e)
}

func (a *AuthService) RequestCode(ctx context.Context, employeeID string) (*CodeDelivery, error) {
	d, err := a.credentials.RequestCode(ctx, employeeID)
	if err != nil {
		a.logger.Info(ctx, "code request refused", "employee", auth.MaskEmployeeID(employeeID), "error", err)
		return nil, err
	}
	a.logger.Info(ctx, "code sent", "employee", auth.MaskEmployeeID(employeeID), "expires_at", d.ExpiresAt)
	return d, nil
}

// VerifyCode checks a one-time code and issues a session on success.
func (a *AuthService) VerifyCode(ctx context.Context, employeeID, code string) (*IssuedSession, error) {
	e, err := a.credentials.VerifyCode(ctx, employeeID, code)
	a.record(ctx, FactorOTP, employeeID, err)
	if err != nil {
		return nil, err
	}
	return a.issue(ctx, e)
}

func (a *AuthService) GetSession(ctx context.Context, token string) (*SessionInfo, error) {
	return a.sessions.Validate(ctx, token)
}

// Logout invalidates the session behind token. It succeeds for unknown tokens.
func (a *AuthService) Logout(ctx context.Context, token string) error {
	deleted, err := a.sessions.Invalidate(ctx, token)
	if err != nil {
		return err
	}
	if deleted {
		a.recorder.SessionInvalidated()
		a.logger.Info(ctx, "session invalidated", "token_ref", auth.TokenRef(token))
	}
	return nil
}

func (a *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := a.sessions.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}
	a.recorder.SessionsPurged(n)
	return n, nil
}

func (a *AuthService) issue(ctx context.Context, e *models.Employee) (*IssuedSession, error) {
	s, err := a.sessions.Issue(ctx, e)
	if err != nil {
		a.logger.Error(ctx, "session issue failed", "employee", auth.MaskEmployeeID(e.EmployeeID), "error", err)
		return nil, err
	}
	a.recorder.SessionIssued()
	a.logger.Info(ctx, "session issued", "token_ref", auth.TokenRef(s.Token), "expires_at", s.ExpiresAt)
	return s, nil
}

func (a *AuthService) record(ctx context.Context, factor, employeeID string, err error) {
	outcome := Outcome(err)
	a.recorder.Verification(factor, outcome)

	masked := auth.MaskEmployeeID(employeeID)
	if outcome == "error" {
		a.logger.Error(ctx, "verification failed", "factor", factor, "employee", masked, "error", err)
		return
	}
	a.logger.Info(ctx, "verification", "factor", factor, "employee", masked, "outcome", outcome)
}

// Outcome classifies a verification result for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, common.ErrorNotFound):
		return "not_found"
	case errors.Is(err, common.ErrorInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, common.ErrorLocked):
		return "locked"
	default:
		return "error"
	}
}
