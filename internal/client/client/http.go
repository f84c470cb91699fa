package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/api"
	"github.com/dmitrijs2005/giftdesk/internal/common"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client for the server at baseURL
// (e.g. "http://127.0.0.1:8080"). timeout bounds every call.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var res api.PingResponse
	if err := c.do(ctx, http.MethodGet, api.PathPing, "", nil, &res); err != nil {
		return err
	}
	if res.Status != "OK" {
		return common.ErrorUnavailable
	}
	return nil
}

func (c *HTTPClient) Identify(ctx context.Context, employeeID string) (*api.IdentifyResponse, error) {
	var res api.IdentifyResponse
	if err := c.do(ctx, http.MethodPost, api.PathIdentify, "", api.IdentifyRequest{EmployeeID: employeeID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Verify(ctx context.Context, employeeID string, yearOfBirth int) (*api.SessionResponse, error) {
	var res api.SessionResponse
	req := api.VerifyRequest{EmployeeID: employeeID, YearOfBirth: yearOfBirth}
	if err := c.do(ctx, http.MethodPost, api.PathVerify, "", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) RequestCode(ctx context.Context, employeeID string) (*api.RequestCodeResponse, error) {
	var res api.RequestCodeResponse
	if err := c.do(ctx, http.MethodPost, api.PathRequestCode, "", api.RequestCodeRequest{EmployeeID: employeeID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) VerifyCode(ctx context.Context, employeeID, code string) (*api.SessionResponse, error) {
	var res api.SessionResponse
	req := api.VerifyCodeRequest{EmployeeID: employeeID, Code: code}
	if err := c.do(ctx, http.MethodPost, api.PathVerifyCode, "", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, token string) (*api.SessionResponse, error) {
	var res api.SessionResponse
	if err := c.do(ctx, http.MethodGet, api.PathSession, token, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, api.PathLogout, token, nil, nil)
}

// do sends in as JSON (when non-nil) and decodes a 2xx body into out
// (when non-nil). Other statuses are turned into errors by mapError.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", common.ErrorUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// mapError turns an error body into the matching common error.
func mapError(status int, data []byte) error {
	var e api.ErrorResponse
	_ = json.Unmarshal(data, &e)

	switch e.Error {
	case api.CodeInvalidCredential:
		n := 0
		if e.RemainingAttempts != nil {
			n = *e.RemainingAttempts
		}
		return &common.InvalidCredentialError{RemainingAttempts: n}
	case api.CodeLocked:
		return &common.LockedError{MinutesRemaining: e.MinutesRemaining}
	case api.CodeNotFound:
		return common.ErrorNotFound
	case api.CodeUnauthorized:
		return common.ErrorUnauthorized
	case api.CodeValidation:
		return fmt.Errorf("%w: %s", common.ErrorValidation, e.Message)
	case api.CodeRateLimited:
		return common.ErrorRateLimited
	}

	switch {
	case status == http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case status == http.StatusTooManyRequests:
		return common.ErrorRateLimited
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return common.ErrorUnavailable
	}
	return fmt.Errorf("%w: server returned %d", common.ErrorInternal, status)
}
