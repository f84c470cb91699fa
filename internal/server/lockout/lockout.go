// Package lockout implements the failed-attempt counter and account lock
// applied to every knowledge-factor and one-time-code check.
package lockout

import (
	"math"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/common"
)

type Mode string

const (
	// ModePermanent keeps the account locked until an operator unlocks it.
	ModePermanent Mode = "permanent"
	// ModeTimed lifts the lock once Duration has elapsed.
	ModeTimed Mode = "timed"
)

// Policy decides how failures accumulate into a lock.
type Policy struct {
	Threshold int
	Mode      Mode
	Duration  time.Duration
}

// State is the persisted verification state of one employee.
type State struct {
	FailedAttempts int
	Locked         bool
	LockedUntil    *time.Time
}

// Check returns the state effective at now. A locked account yields a
// *common.LockedError and does not consume an attempt. A timed lock whose
// deadline has passed is lifted and its counter reset; changed reports that
// the returned state differs from s.
func (p Policy) Check(s State, now time.Time) (effective State, changed bool, err error) {
	if !s.Locked {
		return s, false, nil
	}
	if s.LockedUntil == nil {
		return s, false, common.NewLockedError(-1)
	}
	if !now.Before(*s.LockedUntil) {
		return State{}, true, nil
	}
	return s, false, common.NewLockedError(minutesUntil(*s.LockedUntil, now))
}

// Fail records one failed check on an unlocked state. The returned error is
// a *common.InvalidCredentialError while attempts remain and a
// *common.LockedError once the threshold is reached.
func (p Policy) Fail(s State, now time.Time) (State, error) {
	next := State{FailedAttempts: s.FailedAttempts + 1}

	if next.FailedAttempts < p.Threshold {
		return next, &common.InvalidCredentialError{RemainingAttempts: p.Threshold - next.FailedAttempts}
	}

	next.Locked = true
	if p.Mode == ModeTimed {
		until := now.Add(p.Duration)
		next.LockedUntil = &until
		return next, common.NewLockedError(minutesUntil(until, now))
	}
	return next, common.NewLockedError(-1)
}

// minutesUntil rounds up, so a lock with any time left reports at least 1.
func minutesUntil(until, now time.Time) int {
	m := int(math.Ceil(until.Sub(now).Minutes()))
	if m < 1 {
		m = 1
	}
	return m
}
