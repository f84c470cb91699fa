package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/api"
	"github.com/dmitrijs2005/giftdesk/internal/common"
)

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return &fakeTimerHandle{c: c, t: t}
}

type fakeTimerHandle struct {
	c *fakeClock
	t *fakeTimer
}

func (h *fakeTimerHandle) Stop() bool {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	if h.t.stopped || h.t.fired {
		return false
	}
	h.t.stopped = true
	return true
}

// Advance moves time forward and runs due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

// Jump moves wall time without running timers, like a suspended process.
func (c *fakeClock) Jump(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Active counts timers that were neither stopped nor fired.
func (c *fakeClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakeAPI struct {
	mu        sync.Mutex
	sessions  map[string]*api.SessionResponse
	getErr    error
	logoutErr error
	loggedOut []string
	gets      int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{sessions: map[string]*api.SessionResponse{}}
}

func (f *fakeAPI) GetSession(_ context.Context, token string) (*api.SessionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[token]
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	cp := *s
	cp.Token = ""
	return &cp, nil
}

func (f *fakeAPI) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = append(f.loggedOut, token)
	delete(f.sessions, token)
	return f.logoutErr
}

func (f *fakeAPI) issue(token string, emp api.Employee, exp time.Time) *api.SessionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &api.SessionResponse{Token: token, Employee: emp, ExpiresAt: exp}
	f.sessions[token] = s
	cp := *s
	return &cp
}

type memStore struct {
	mu       sync.Mutex
	snap     *Snapshot
	saves    int
	hydrates int
	clears   int
	clearErr error
}

func (m *memStore) Load(context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, nil
	}
	cp := *m.snap
	return &cp, nil
}

func (m *memStore) Save(_ context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.snap = &s
	return nil
}

func (m *memStore) Hydrate(_ context.Context, emp api.Employee, exp time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hydrates++
	if m.snap == nil {
		return false, nil
	}
	changed := !m.snap.ExpiresAt.Equal(exp)
	m.snap.Employee = emp
	m.snap.IsNewUser = emp.IsNewUser
	m.snap.ExpiresAt = exp
	return changed, nil
}

func (m *memStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.snap = nil
	return m.clearErr
}

func (m *memStore) current() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}
