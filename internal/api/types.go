// Package api holds the JSON wire types shared by the giftdesk HTTP server
// and its clients.
package api

import "time"

// Error codes carried in ErrorResponse.Error.
const (
	CodeNotFound          = "not_found"
	CodeInvalidCredential = "invalid_credential"
	CodeLocked            = "locked"
	CodeUnauthorized      = "unauthorized"
	CodeValidation        = "validation"
	CodeRateLimited       = "rate_limited"
	CodeInternal          = "internal"
)

// Route paths.
const (
	PathPing        = "/api/ping"
	PathIdentify    = "/api/auth/identify"
	PathVerify      = "/api/auth/verify"
	PathRequestCode = "/api/auth/otp"
	PathVerifyCode  = "/api/auth/otp/verify"
	PathSession     = "/api/auth/session"
	PathLogout      = "/api/auth/logout"
	PathMetrics     = "/metrics"
)

type IdentifyRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,max=64"`
}

type IdentifyResponse struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	MaskedEmployeeID string `json:"masked_employee_id"`
}

type VerifyRequest struct {
	EmployeeID  string `json:"employee_id" validate:"required,max=64"`
	YearOfBirth int    `json:"year_of_birth" validate:"required,min=1900,max=2100"`
}

type RequestCodeRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,max=64"`
}

type RequestCodeResponse struct {
	MaskedEmail string    `json:"masked_email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type VerifyCodeRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,max=64"`
	Code       string `json:"code" validate:"required,len=6,numeric"`
}

// Employee is the public profile of an employee. It never carries secrets.
type Employee struct {
	EmployeeID    string `json:"employee_id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	PointsBalance int64  `json:"points_balance"`
	IsNewUser     bool   `json:"is_new_user"`
}

// SessionResponse answers verify, verify-code and get-session calls.
// Token is only present when a session has just been issued.
type SessionResponse struct {
	Token     string    `json:"token,omitempty"`
	Employee  Employee  `json:"employee"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PingResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error             string `json:"error"`
	Message           string `json:"message,omitempty"`
	RemainingAttempts *int   `json:"remaining_attempts,omitempty"`
	MinutesRemaining  *int   `json:"minutes_remaining,omitempty"`
}
