package models

import "time"

// Session is a stored session. Only the SHA-256 digest of the bearer token
// is kept; EmployeeID references employees.id.
type Session struct {
	ID         string
	TokenHash  string
	EmployeeID string
	IsNewUser  bool
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
