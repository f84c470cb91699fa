package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/api"
	"github.com/dmitrijs2005/giftdesk/internal/client/session"
	"github.com/dmitrijs2005/giftdesk/internal/common"
)

// scriptInput answers prompts from a fixed list, then reports EOF.
type scriptInput struct {
	mu      sync.Mutex
	lines   []string
	prompts []string
	closed  bool
}

func newScript(lines ...string) *scriptInput {
	return &scriptInput{lines: lines}
}

func (s *scriptInput) next(prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptInput) Prompt(p string) (string, error)       { return s.next(p) }
func (s *scriptInput) PromptSecret(p string) (string, error) { return s.next(p) }
func (s *scriptInput) Close() error                          { s.closed = true; return nil }

type fakeAuth struct {
	identify    *api.IdentifyResponse
	identifyErr error

	// yearErrs / codeErrs are returned in order; after they run out the
	// login succeeds.
	yearErrs []error
	codeErrs []error
	codeErr  error

	tracker *fakeTracker
	years   []int
	codes   []string
}

func (f *fakeAuth) Identify(_ context.Context, id string) (*api.IdentifyResponse, error) {
	if f.identifyErr != nil {
		return nil, f.identifyErr
	}
	return f.identify, nil
}

func (f *fakeAuth) LoginWithBirthYear(_ context.Context, id string, year int) (session.Session, error) {
	f.years = append(f.years, year)
	if len(f.yearErrs) > 0 {
		err := f.yearErrs[0]
		f.yearErrs = f.yearErrs[1:]
		return session.Session{}, err
	}
	return f.tracker.login(id), nil
}

func (f *fakeAuth) RequestCode(_ context.Context, id string) (*api.RequestCodeResponse, error) {
	if f.codeErr != nil {
		return nil, f.codeErr
	}
	return &api.RequestCodeResponse{MaskedEmail: "a***@example.com", ExpiresAt: time.Now().Add(5 * time.Minute)}, nil
}

func (f *fakeAuth) LoginWithCode(_ context.Context, id, code string) (session.Session, error) {
	f.codes = append(f.codes, code)
	if len(f.codeErrs) > 0 {
		err := f.codeErrs[0]
		f.codeErrs = f.codeErrs[1:]
		return session.Session{}, err
	}
	return f.tracker.login(id), nil
}

func (f *fakeAuth) Ping(context.Context) error { return nil }

type fakeTracker struct {
	mu         sync.Mutex
	cur        session.Session
	listeners  []func(session.Event)
	restoreErr error
	recheckErr error
	logoutErr  error
	restores   int
	rechecks   int
	resumes    int
	logouts    int
	closed     bool
}

func (f *fakeTracker) login(id string) session.Session {
	f.mu.Lock()
	f.cur = session.Session{
		State:     session.Authenticated,
		Employee:  api.Employee{EmployeeID: id, FirstName: "Ada", LastName: "Lovelace", PointsBalance: 1200, IsNewUser: true},
		ExpiresAt: time.Now().Add(30 * time.Minute),
		Remaining: 30 * time.Minute,
	}
	cur := f.cur
	f.mu.Unlock()
	return cur
}

func (f *fakeTracker) Restore(context.Context) error { f.restores++; return f.restoreErr }
func (f *fakeTracker) Recheck(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rechecks++
	return f.recheckErr
}
func (f *fakeTracker) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
}

func (f *fakeTracker) Logout(context.Context) error {
	f.mu.Lock()
	f.logouts++
	f.cur = session.Session{State: session.LoggedOut}
	f.mu.Unlock()
	return f.logoutErr
}

func (f *fakeTracker) Current() session.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cur
}

func (f *fakeTracker) OnChange(fn func(session.Event)) {
	f.listeners = append(f.listeners, fn)
}

func (f *fakeTracker) Close() { f.closed = true }

func (f *fakeTracker) emit(ev session.Event) {
	for _, fn := range f.listeners {
		fn(ev)
	}
}

var errUnavailableForTest = fmt.Errorf("dial: %w", common.ErrorUnavailable)
