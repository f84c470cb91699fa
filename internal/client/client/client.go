package client

import (
	"context"

	"github.com/dmitrijs2005/giftdesk/internal/api"
)

type Client interface {
	Ping(ctx context.Context) error
	Identify(ctx context.Context, employeeID string) (*api.IdentifyResponse, error)
	Verify(ctx context.Context, employeeID string, yearOfBirth int) (*api.SessionResponse, error)
	RequestCode(ctx context.Context, employeeID string) (*api.RequestCodeResponse, error)
	VerifyCode(ctx context.Context, employeeID, code string) (*api.SessionResponse, error)
	GetSession(ctx context.Context, token string) (*api.SessionResponse, error)
	Logout(ctx context.Context, token string) error
}
