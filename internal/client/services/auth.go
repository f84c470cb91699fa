// Package services contains application services for the giftdesk client.
// This file defines the authentication service: the two-step sign-in flows
// and handing issued sessions to the session tracker.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/giftdesk/internal/api"
	"github.com/dmitrijs2005/giftdesk/internal/client/client"
	"github.com/dmitrijs2005/giftdesk/internal/client/session"
	"github.com/dmitrijs2005/giftdesk/internal/common"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Identify: step 1, look up the employee and show the masked identifier.
//   - LoginWithBirthYear / LoginWithCode: step 2, verify a knowledge factor
//     and establish the issued session.
//   - RequestCode: email a one-time code for LoginWithCode.
//   - Ping: check server liveness.
type AuthService interface {
	Identify(ctx context.Context, employeeID string) (*api.IdentifyResponse, error)
	LoginWithBirthYear(ctx context.Context, employeeID string, year int) (session.Session, error)
	RequestCode(ctx context.Context, employeeID string) (*api.RequestCodeResponse, error)
	LoginWithCode(ctx context.Context, employeeID, code string) (session.Session, error)
	Ping(ctx context.Context) error
}

// Establisher adopts issued sessions; *session.Tracker implements it.
type Establisher interface {
	Establish(ctx context.Context, res *api.SessionResponse) error
	Current() session.Session
}

type authService struct {
	client  client.Client
	tracker Establisher
}

func NewAuthService(c client.Client, tracker Establisher) AuthService {
	return &authService{client: c, tracker: tracker}
}

func (a *authService) Identify(ctx context.Context, employeeID string) (*api.IdentifyResponse, error) {
	id, err := normalizeID(employeeID)
	if err != nil {
		return nil, err
	}
	return a.client.Identify(ctx, id)
}

func (a *authService) LoginWithBirthYear(ctx context.Context, employeeID string, year int) (session.Session, error) {
	id, err := normalizeID(employeeID)
	if err != nil {
		return session.Session{}, err
	}
	res, err := a.client.Verify(ctx, id, year)
	if err != nil {
		return session.Session{}, err
	}
	return a.establish(ctx, res)
}

func (a *authService) RequestCode(ctx context.Context, employeeID string) (*api.RequestCodeResponse, error) {
	id, err := normalizeID(employeeID)
	if err != nil {
		return nil, err
	}
	return a.client.RequestCode(ctx, id)
}

func (a *authService) LoginWithCode(ctx context.Context, employeeID, code string) (session.Session, error) {
	id, err := normalizeID(employeeID)
	if err != nil {
		return session.Session{}, err
	}
	code = strings.TrimSpace(code)
	if len(code) != 6 {
		return session.Session{}, fmt.Errorf("%w: the code has 6 digits", common.ErrorValidation)
	}
	res, err := a.client.VerifyCode(ctx, id, code)
	if err != nil {
		return session.Session{}, err
	}
	return a.establish(ctx, res)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) establish(ctx context.Context, res *api.SessionResponse) (session.Session, error) {
	if err := a.tracker.Establish(ctx, res); err != nil {
		return session.Session{}, fmt.Errorf("establish session: %w", err)
	}
	return a.tracker.Current(), nil
}

func normalizeID(employeeID string) (string, error) {
	id := strings.TrimSpace(employeeID)
	if id == "" {
		return "", fmt.Errorf("%w: employee ID is required", common.ErrorValidation)
	}
	return id, nil
}
