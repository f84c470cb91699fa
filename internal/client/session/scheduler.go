package session

import (
	"sort"
	"sync"
	"time"
)

type task struct {
	name  string
	at    time.Time
	fn    func()
	timer Timer
}

// Scheduler runs named callbacks at absolute instants. All tasks belong to
// one key (the identity of the current token): arming under a new key
// cancels every task of the previous one. Callbacks run one at a time and
// never on the caller's goroutine.
type Scheduler struct {
	clock Clock

	mu    sync.Mutex
	key   string
	tasks map[string]*task

	// run serialises callbacks.
	run sync.Mutex
}

func NewScheduler(clock Clock) *Scheduler {
	return &Scheduler{clock: clock, tasks: make(map[string]*task)}
}

// Arm schedules fn to run at at. A task with the same name is replaced.
func (s *Scheduler) Arm(key, name string, at time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key != s.key {
		s.cancelLocked()
		s.key = key
	}
	if old, ok := s.tasks[name]; ok {
		old.timer.Stop()
	}

	t := &task{name: name, at: at.Round(0), fn: fn}
	s.startLocked(t)
	s.tasks[name] = t
}

// Cancel stops the named task of the current key, if any.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tasks[name]; ok {
		t.timer.Stop()
		delete(s.tasks, name)
	}
}

// CancelAll stops every task and forgets the current key.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.key = ""
}

// Reconcile re-arms every pending task from its absolute instant. Timers
// may not advance while the process is suspended; tasks already due run
// promptly.
func (s *Scheduler) Reconcile() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		t.timer.Stop()
		s.startLocked(t)
	}
}

// Key returns the key of the armed tasks, or "" when none are armed.
func (s *Scheduler) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Pending returns the names of armed tasks in sorted order.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) startLocked(t *task) {
	d := t.at.Sub(s.clock.Now())
	if d < 0 {
		d = 0
	}
	t.timer = s.clock.AfterFunc(d, func() { s.fire(t) })
}

func (s *Scheduler) cancelLocked() {
	for name, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, name)
	}
}

func (s *Scheduler) fire(t *task) {
	s.mu.Lock()
	if cur, ok := s.tasks[t.name]; !ok || cur != t {
		// replaced or cancelled after the timer had already fired
		s.mu.Unlock()
		return
	}
	delete(s.tasks, t.name)
	s.mu.Unlock()

	s.run.Lock()
	defer s.run.Unlock()
	t.fn()
}
