package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/common"
	"github.com/dmitrijs2005/giftdesk/internal/logging"
	"github.com/dmitrijs2005/giftdesk/internal/server/metrics"
	"github.com/dmitrijs2005/giftdesk/internal/server/models"
	"github.com/dmitrijs2005/giftdesk/internal/server/services"
)

var testExpiry = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

var ada = models.EmployeeProfile{EmployeeID: "E100", FirstName: "Ada", LastName: "Lovelace", PointsBalance: 250, IsNewUser: true}

// fakeAuth accepts year 1985 and code 123456 for E100 and knows one token.
type fakeAuth struct {
	mu        sync.Mutex
	tokens    map[string]bool
	verifyErr error
	logoutErr error
	logouts   []string
	lastYear  int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{tokens: map[string]bool{"good-token": true}}
}

func (f *fakeAuth) Identify(_ context.Context, employeeID string) (*services.Identity, error) {
	if employeeID != "E100" {
		return nil, common.ErrorNotFound
	}
	return &services.Identity{FirstName: "Ada", LastName: "Lovelace", MaskedEmployeeID: "E**0"}, nil
}

func (f *fakeAuth) Verify(_ context.Context, employeeID string, year int) (*services.IssuedSession, error) {
	f.mu.Lock()
	f.lastYear = year
	f.mu.Unlock()
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if employeeID != "E100" {
		return nil, common.ErrorNotFound
	}
	if year != 1985 {
		return nil, &common.InvalidCredentialError{RemainingAttempts: 1}
	}
	return &services.IssuedSession{Token: "new-token", Employee: ada, ExpiresAt: testExpiry}, nil
}

func (f *fakeAuth) RequestCode(_ context.Context, employeeID string) (*services.CodeDelivery, error) {
	if employeeID != "E100" {
		return nil, common.ErrorNotFound
	}
	return &services.CodeDelivery{MaskedEmail: "a*a@corp.example", ExpiresAt: testExpiry}, nil
}

func (f *fakeAuth) VerifyCode(_ context.Context, employeeID, code string) (*services.IssuedSession, error) {
	if code != "123456" {
		return nil, common.NewLockedError(-1)
	}
	return &services.IssuedSession{Token: "otp-token", Employee: ada, ExpiresAt: testExpiry}, nil
}

func (f *fakeAuth) GetSession(_ context.Context, token string) (*services.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.tokens[token] {
		return nil, common.ErrorUnauthorized
	}
	return &services.SessionInfo{Employee: ada, ExpiresAt: testExpiry}, nil
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts = append(f.logouts, token)
	delete(f.tokens, token)
	return f.logoutErr
}

func newTestServer(t *testing.T, svc AuthService, opts Options) (*Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	return NewServer("127.0.0.1:0", logging.Nop{}, svc, m, opts), m
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
