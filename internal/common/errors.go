// Package common defines shared constants and sentinel errors used across
// client and server layers of giftdesk. Callers should use errors.Is to
// match these values and errors.As to extract the typed variants.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level errors.
	ErrorInternal          = errors.New("internal error")
	ErrorUnauthorized      = errors.New("unauthorized")
	ErrorInvalidCredential = errors.New("invalid credential")
	ErrorLocked            = errors.New("account locked")
	ErrorValidation        = errors.New("validation error")
	ErrorRateLimited       = errors.New("too many requests")

	// Transport errors.
	ErrorUnavailable = errors.New("server unavailable")
)

// InvalidCredentialError reports a wrong knowledge factor while attempts remain.
type InvalidCredentialError struct {
	RemainingAttempts int
}

func (e *InvalidCredentialError) Error() string {
	return fmt.Sprintf("invalid credential, %d attempt(s) remaining", e.RemainingAttempts)
}

func (e *InvalidCredentialError) Is(target error) bool {
	return target == ErrorInvalidCredential
}

// LockedError reports a locked employee record. MinutesRemaining is nil for
// a permanent lock that only an administrator can clear.
type LockedError struct {
	MinutesRemaining *int
}

func (e *LockedError) Error() string {
	if e.MinutesRemaining == nil {
		return "account locked, contact HR"
	}
	return fmt.Sprintf("account locked, try again in %d minute(s)", *e.MinutesRemaining)
}

func (e *LockedError) Is(target error) bool {
	return target == ErrorLocked
}

// NewLockedError builds a LockedError; a negative minutes value means permanent.
func NewLockedError(minutes int) *LockedError {
	if minutes < 0 {
		return &LockedError{}
	}
	m := minutes
	return &LockedError{MinutesRemaining: &m}
}
