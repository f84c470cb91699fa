// Package session tracks the client's authenticated session: it restores a
// persisted token, confirms it with the server, warns before expiry and
// logs out when the session ends.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/api"
	"github.com/dmitrijs2005/giftdesk/internal/common"
	"github.com/dmitrijs2005/giftdesk/internal/logging"
)

type State int

const (
	Unauthenticated State = iota
	Initializing
	Authenticated
	ExpiringSoon
	LoggedOut
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Initializing:
		return "initializing"
	case Authenticated:
		return "authenticated"
	case ExpiringSoon:
		return "expiring-soon"
	case LoggedOut:
		return "logged-out"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Active reports whether s carries a usable session.
func (s State) Active() bool {
	return s == Authenticated || s == ExpiringSoon
}

// Reason explains a state change.
type Reason string

const (
	ReasonRestored    Reason = "restored"
	ReasonRejected    Reason = "rejected"
	ReasonUnreachable Reason = "unreachable"
	ReasonLogin       Reason = "login"
	ReasonWarning     Reason = "expiring"
	ReasonExpired     Reason = "expired"
	ReasonUserLogout  Reason = "logout"
	ReasonRevoked     Reason = "revoked"
)

type Event struct {
	From   State
	To     State
	Reason Reason
	At     time.Time
}

// Session is a point-in-time view of the tracker.
type Session struct {
	State     State
	Employee  api.Employee
	ExpiresAt time.Time
	Remaining time.Duration
}

// API is the part of the server API the tracker confirms sessions with.
type API interface {
	GetSession(ctx context.Context, token string) (*api.SessionResponse, error)
	Logout(ctx context.Context, token string) error
}

// Scheduled task names.
const (
	taskWarn   = "warn"
	taskExpire = "expire"
)

type Options struct {
	// Warning is how long before expiry the session turns ExpiringSoon.
	Warning time.Duration
	// Timeout bounds server calls made from timer callbacks.
	Timeout time.Duration
	Logger  logging.Logger
}

// Tracker is the client session state machine. It is safe for concurrent use.
type Tracker struct {
	api     API
	store   Store
	sched   *Scheduler
	clock   Clock
	warning time.Duration
	timeout time.Duration
	logger  logging.Logger

	mu        sync.Mutex
	state     State
	token     string
	employee  api.Employee
	expiresAt time.Time
	listeners []func(Event)
}

func NewTracker(a API, store Store, sched *Scheduler, clock Clock, opts Options) *Tracker {
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Tracker{
		api:     a,
		store:   store,
		sched:   sched,
		clock:   clock,
		warning: opts.Warning,
		timeout: opts.Timeout,
		logger:  opts.Logger.With("module", "session"),
		state:   Unauthenticated,
	}
}

// OnChange registers fn to be called after every state change. fn runs
// outside the tracker's lock and may call back into it.
func (t *Tracker) OnChange(fn func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Token returns the bearer token of an active session, or "".
func (t *Tracker) Token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.Active() {
		return ""
	}
	return t.token
}

func (t *Tracker) Current() Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Session{State: t.state}
	if t.state.Active() {
		s.Employee = t.employee
		s.ExpiresAt = t.expiresAt
		s.Remaining = t.expiresAt.Sub(t.clock.Now())
	}
	return s
}

// Restore rehydrates a persisted session and confirms it with the server.
//
// A rejected token clears the cache and leaves the tracker Unauthenticated.
// When the server cannot be reached the tracker is Unauthenticated as well
// but the cache is kept for the next attempt, and the error is returned.
func (t *Tracker) Restore(ctx context.Context) error {
	snap, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if snap == nil {
		return nil
	}

	t.transition(Initializing, ReasonRestored, func() { t.token = snap.Token })

	res, err := t.api.GetSession(ctx, snap.Token)
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		t.logger.Info(ctx, "persisted session rejected", "token", tokenKey(snap.Token))
		t.transition(Unauthenticated, ReasonRejected, t.resetLocked)
		if err := t.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	case err != nil:
		t.transition(Unauthenticated, ReasonUnreachable, t.resetLocked)
		return fmt.Errorf("confirm session: %w", err)
	}

	if _, err := t.store.Hydrate(ctx, res.Employee, res.ExpiresAt); err != nil {
		t.logger.Warn(ctx, "update session cache", "error", err)
	}
	t.activate(snap.Token, res.Employee, res.ExpiresAt, ReasonRestored, false)
	return nil
}

// Establish adopts a session freshly issued by a verification call.
// Timers of any previous session are replaced.
func (t *Tracker) Establish(ctx context.Context, res *api.SessionResponse) error {
	if res == nil || res.Token == "" {
		return fmt.Errorf("%w: session response without token", common.ErrorInternal)
	}

	err := t.store.Save(ctx, Snapshot{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		Employee:  res.Employee,
		IsNewUser: res.Employee.IsNewUser,
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	t.activate(res.Token, res.Employee, res.ExpiresAt, ReasonLogin, false)
	return nil
}

// Logout ends the session at the user's request.
func (t *Tracker) Logout(ctx context.Context) error {
	return t.end(ctx, ReasonUserLogout, "")
}

// Recheck confirms the active session with the server, as done when the
// user returns to the client. A rejected token logs out; a changed expiry
// re-arms the timers. Transport errors leave the session untouched.
func (t *Tracker) Recheck(ctx context.Context) error {
	t.mu.Lock()
	token, active := t.token, t.state.Active()
	t.mu.Unlock()
	if !active {
		return nil
	}

	res, err := t.api.GetSession(ctx, token)
	if errors.Is(err, common.ErrorUnauthorized) {
		return t.end(ctx, ReasonRevoked, token)
	}
	if err != nil {
		return fmt.Errorf("confirm session: %w", err)
	}

	if _, err := t.store.Hydrate(ctx, res.Employee, res.ExpiresAt); err != nil {
		t.logger.Warn(ctx, "update session cache", "error", err)
	}

	t.mu.Lock()
	if t.token != token || !t.state.Active() {
		t.mu.Unlock()
		return nil
	}
	changed := !t.expiresAt.Equal(res.ExpiresAt)
	t.employee = res.Employee
	t.mu.Unlock()

	if changed {
		t.logger.Debug(ctx, "session expiry adjusted by server", "token", tokenKey(token))
		t.activate(token, res.Employee, res.ExpiresAt, ReasonRestored, true)
	}
	return nil
}

// Resume recomputes timer delays from the absolute expiry after the
// process may have been suspended.
func (t *Tracker) Resume() {
	t.sched.Reconcile()
}

// Close cancels all timers. The persisted session is kept.
func (t *Tracker) Close() {
	t.sched.CancelAll()
}

// activate makes token the active session and arms its timers. With
// current set, nothing happens unless token is still the active session.
func (t *Tracker) activate(token string, emp api.Employee, expiresAt time.Time, reason Reason, current bool) {
	now := t.clock.Now()
	warnAt := expiresAt.Add(-t.warning)

	to := Authenticated
	if !now.Before(warnAt) {
		to = ExpiringSoon
	}

	t.mu.Lock()
	if current && (t.token != token || !t.state.Active()) {
		t.mu.Unlock()
		return
	}
	from := t.state
	t.state = to
	t.token = token
	t.employee = emp
	t.expiresAt = expiresAt

	key := tokenKey(token)
	if to == Authenticated && t.warning > 0 {
		t.sched.Arm(key, taskWarn, warnAt, func() { t.warn(token) })
	} else {
		t.sched.Cancel(taskWarn)
	}
	t.sched.Arm(key, taskExpire, expiresAt, func() { t.expire(token) })
	listeners := t.listenersLocked()
	t.mu.Unlock()

	t.emit(listeners, Event{From: from, To: to, Reason: reason, At: now})
}

func (t *Tracker) warn(token string) {
	t.mu.Lock()
	if t.token != token || t.state != Authenticated {
		t.mu.Unlock()
		return
	}
	t.state = ExpiringSoon
	listeners := t.listenersLocked()
	t.mu.Unlock()

	t.emit(listeners, Event{From: Authenticated, To: ExpiringSoon, Reason: ReasonWarning, At: t.clock.Now()})
}

func (t *Tracker) expire(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if err := t.end(ctx, ReasonExpired, token); err != nil {
		t.logger.Error(ctx, "expire session", "error", err)
	}
}

// end moves to LoggedOut, invalidates the token on the server (best effort)
// and clears the persisted session regardless of the server's answer. When
// token is non-empty, end is a no-op unless it is still the active token.
func (t *Tracker) end(ctx context.Context, reason Reason, token string) error {
	t.mu.Lock()
	if !t.state.Active() || (token != "" && t.token != token) {
		t.mu.Unlock()
		return nil
	}
	token = t.token
	from := t.state
	t.state = LoggedOut
	t.resetLocked()
	t.sched.CancelAll()
	listeners := t.listenersLocked()
	t.mu.Unlock()

	t.emit(listeners, Event{From: from, To: LoggedOut, Reason: reason, At: t.clock.Now()})

	if err := t.api.Logout(ctx, token); err != nil {
		t.logger.Warn(ctx, "server logout failed", "token", tokenKey(token), "error", err)
	}
	if err := t.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	t.logger.Info(ctx, "session ended", "reason", string(reason), "token", tokenKey(token))
	return nil
}

func (t *Tracker) resetLocked() {
	t.token = ""
	t.employee = api.Employee{}
	t.expiresAt = time.Time{}
}

// transition applies mutate and the new state under the lock, then informs
// listeners.
func (t *Tracker) transition(to State, reason Reason, mutate func()) {
	t.mu.Lock()
	from := t.state
	if mutate != nil {
		mutate()
	}
	t.state = to
	listeners := t.listenersLocked()
	t.mu.Unlock()

	t.emit(listeners, Event{From: from, To: to, Reason: reason, At: t.clock.Now()})
}

func (t *Tracker) listenersLocked() []func(Event) {
	return append([]func(Event){}, t.listeners...)
}

func (t *Tracker) emit(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}

// tokenKey identifies a token in logs and timer keys without revealing it.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:12]
}
