// Package services contains server-side business logic: credential
// verification with lockout, session issuance and validation, and the
// operator actions on the employee directory.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/common"
	"github.com/dmitrijs2005/giftdesk/internal/dbx"
	"github.com/dmitrijs2005/giftdesk/internal/server/auth"
	"github.com/dmitrijs2005/giftdesk/internal/server/lockout"
	"github.com/dmitrijs2005/giftdesk/internal/server/mailer"
	"github.com/dmitrijs2005/giftdesk/internal/server/models"
	"github.com/dmitrijs2005/giftdesk/internal/server/repositories/repomanager"
)

// Identity is what identify reveals about an employee before any factor
// has been checked.
type Identity struct {
	FirstName        string
	LastName         string
	MaskedEmployeeID string
}

// CodeDelivery describes a one-time code that has been sent.
type CodeDelivery struct {
	MaskedEmail string
	ExpiresAt   time.Time
}

// factorCheck reports whether the presented factor matches e. A non-nil
// step is the one-time code step to record as consumed.
type factorCheck func(e *models.Employee, now time.Time) (ok bool, step *int64, err error)

// CredentialService verifies the knowledge factor and one-time codes,
// maintaining the per-employee failure counter and lock.
type CredentialService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	policy      lockout.Policy
	otp         auth.OTP
	mailer      mailer.Mailer
	now         func() time.Time
}

func NewCredentialService(db *sql.DB, m repomanager.RepositoryManager, policy lockout.Policy, otp auth.OTP, mail mailer.Mailer) *CredentialService {
	return &CredentialService{
		db:          db,
		repomanager: m,
		policy:      policy,
		otp:         otp,
		mailer:      mail,
		now:         time.Now,
	}
}

// Identify looks an employee up without touching the failure counter.
func (s *CredentialService) Identify(ctx context.Context, employeeID string) (*Identity, error) {
	e, err := s.repomanager.Employees(s.db).GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return &Identity{
		FirstName:        e.FirstName,
		LastName:         e.LastName,
		MaskedEmployeeID: auth.MaskEmployeeID(e.EmployeeID),
	}, nil
}

// VerifyBirthYear checks the knowledge factor and returns the employee as
// it was before the successful check.
func (s *CredentialService) VerifyBirthYear(ctx context.Context, employeeID string, year int) (*models.Employee, error) {
	return s.verify(ctx, employeeID, func(e *models.Employee, _ time.Time) (bool, *int64, error) {
		return auth.CheckBirthYear(e.BirthYearHash, year), nil, nil
	})
}

// RequestCode sends a fresh one-time code to the employee's address.
// Requests against a locked account fail with a *common.LockedError. While
// the current step's code has already been consumed no code is sent and
// common.ErrorRateLimited is returned; no attempt is counted.
func (s *CredentialService) RequestCode(ctx context.Context, employeeID string) (*CodeDelivery, error) {
	e, err := s.repomanager.Employees(s.db).GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if e.Email == "" {
		return nil, fmt.Errorf("no email on file: %w", common.ErrorValidation)
	}

	now := s.now()
	if _, _, err := s.policy.Check(stateOf(e), now); err != nil {
		return nil, err
	}

	if s.otp.Used(now, e.OTPLastStep) {
		return nil, fmt.Errorf("%w: next code available at %s", common.ErrorRateLimited, s.otp.NextCodeAt(now).Format(time.RFC3339))
	}

	code, expiresAt, err := s.otp.Code(e.OTPSecret, now)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendCode(ctx, e.Email, code, expiresAt); err != nil {
		return nil, err
	}

	return &CodeDelivery{MaskedEmail: auth.MaskEmail(e.Email), ExpiresAt: expiresAt}, nil
}

// VerifyCode checks a one-time code. Each code is accepted at most once.
func (s *CredentialService) VerifyCode(ctx context.Context, employeeID, code string) (*models.Employee, error) {
	return s.verify(ctx, employeeID, func(e *models.Employee, now time.Time) (bool, *int64, error) {
		step, ok, err := s.otp.Match(e.OTPSecret, code, now, e.OTPLastStep)
		if err != nil || !ok {
			return false, nil, err
		}
		return true, &step, nil
	})
}

// verify runs one factor check under the employee's row lock. Failure
// outcomes are committed before they are returned.
func (s *CredentialService) verify(ctx context.Context, employeeID string, check factorCheck) (*models.Employee, error) {
	var (
		verified *models.Employee
		outcome  error
	)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Employees(tx)

		e, err := repo.GetByEmployeeIDForUpdate(ctx, employeeID)
		if err != nil {
			return err
		}

		now := s.now()
		state, _, lockErr := s.policy.Check(stateOf(e), now)
		if lockErr != nil {
			outcome = lockErr
			return nil
		}

		ok, step, err := check(e, now)
		if err != nil {
			return err
		}

		if ok {
			if err := repo.MarkVerified(ctx, e.ID, step); err != nil {
				return err
			}
			verified = e
			return nil
		}

		next, failErr := s.policy.Fail(state, now)
		if err := repo.UpdateSecurity(ctx, e.ID, next.FailedAttempts, next.Locked, next.LockedUntil); err != nil {
			return err
		}
		outcome = failErr
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("verify %s: %w", auth.MaskEmployeeID(employeeID), err)
	}
	if outcome != nil {
		return nil, outcome
	}
	return verified, nil
}

func stateOf(e *models.Employee) lockout.State {
	return lockout.State{FailedAttempts: e.FailedAttempts, Locked: e.Locked, LockedUntil: e.LockedUntil}
}
