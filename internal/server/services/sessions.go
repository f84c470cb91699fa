package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/common"
	"github.com/dmitrijs2005/giftdesk/internal/server/auth"
	"github.com/dmitrijs2005/giftdesk/internal/server/models"
	"github.com/dmitrijs2005/giftdesk/internal/server/repositories/repomanager"
)

// maxIssueAttempts bounds retries when a generated token digest collides.
const maxIssueAttempts = 3

// IssuedSession is returned once, right after verification. Token is the
// only copy of the plaintext bearer token.
type IssuedSession struct {
	Token     string
	Employee  models.EmployeeProfile
	ExpiresAt time.Time
}

// SessionInfo is the result of validating a token.
type SessionInfo struct {
	Employee  models.EmployeeProfile
	ExpiresAt time.Time
}

// SessionService issues, validates and invalidates sessions. Expiry is
// fixed at issuance; validation never extends it.
type SessionService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	ttl           time.Duration
	now           func() time.Time
	generateToken func() (string, error)
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, ttl time.Duration) *SessionService {
	return &SessionService{
		db:            db,
		repomanager:   m,
		ttl:           ttl,
		now:           time.Now,
		generateToken: auth.GenerateToken,
	}
}

// Issue creates a session for a verified employee.
func (s *SessionService) Issue(ctx context.Context, e *models.Employee) (*IssuedSession, error) {
	repo := s.repomanager.Sessions(s.db)

	for attempt := 1; ; attempt++ {
		token, err := s.generateToken()
		if err != nil {
			return nil, err
		}

		session := &models.Session{
			TokenHash:  auth.HashToken(token),
			EmployeeID: e.ID,
			IsNewUser:  e.IsNewUser,
			ExpiresAt:  s.now().Add(s.ttl).UTC().Truncate(time.Microsecond),
		}

		err = repo.Create(ctx, session)
		if err == nil {
			return &IssuedSession{Token: token, Employee: e.Profile(), ExpiresAt: session.ExpiresAt}, nil
		}
		if !errors.Is(err, common.ErrorConflict) || attempt >= maxIssueAttempts {
			return nil, fmt.Errorf("issue session: %w", err)
		}
	}
}

// Validate resolves a token to its employee. Unknown, expired and orphaned
// tokens all yield common.ErrorUnauthorized.
func (s *SessionService) Validate(ctx context.Context, token string) (*SessionInfo, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	session, err := s.repomanager.Sessions(s.db).FindByTokenHash(ctx, auth.HashToken(token))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, common.ErrorUnauthorized
	}

	e, err := s.repomanager.Employees(s.db).GetByID(ctx, session.EmployeeID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	profile := e.Profile()
	profile.IsNewUser = session.IsNewUser
	return &SessionInfo{Employee: profile, ExpiresAt: session.ExpiresAt}, nil
}

// Invalidate removes the session behind token and reports whether one
// existed. Unknown tokens are not an error.
func (s *SessionService) Invalidate(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return s.repomanager.Sessions(s.db).DeleteByTokenHash(ctx, auth.HashToken(token))
}

// PurgeExpired deletes every session whose expiry has passed.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
}
