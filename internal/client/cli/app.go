package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/client/client"
	"github.com/dmitrijs2005/giftdesk/internal/client/config"
	"github.com/dmitrijs2005/giftdesk/internal/client/services"
	"github.com/dmitrijs2005/giftdesk/internal/client/session"
	"github.com/dmitrijs2005/giftdesk/internal/logging"
)

// sessionTracker is the part of *session.Tracker the CLI drives.
type sessionTracker interface {
	Restore(ctx context.Context) error
	Recheck(ctx context.Context) error
	Resume()
	Logout(ctx context.Context) error
	Current() session.Session
	OnChange(fn func(session.Event))
	Close()
}

type App struct {
	config      *config.Config
	authService services.AuthService
	tracker     sessionTracker
	input       Input
	logger      logging.Logger
	db          *sql.DB

	outMu sync.Mutex
	out   io.Writer
}

// NewApp opens the session cache and wires the API client and tracker.
func NewApp(ctx context.Context, c *config.Config, in Input, out io.Writer, logger logging.Logger) (*App, error) {
	db, err := client.OpenCache(ctx, c.CacheDSN)
	if err != nil {
		logger.Error(ctx, "error initializing session cache", "error", err)
		return nil, err
	}

	apiClient := client.NewHTTPClient(c.ServerEndpointAddr, c.RequestTimeout)
	clock := session.RealClock()
	tracker := session.NewTracker(apiClient, session.NewCache(db), session.NewScheduler(clock), clock, session.Options{
		Warning: c.ExpiryWarning,
		Timeout: c.RequestTimeout,
		Logger:  logger,
	})

	a := newApp(c, services.NewAuthService(apiClient, tracker), tracker, in, out, logger)
	a.db = db
	return a, nil
}

func newApp(c *config.Config, as services.AuthService, tr sessionTracker, in Input, out io.Writer, logger logging.Logger) *App {
	a := &App{config: c, authService: as, tracker: tr, input: in, out: out, logger: logger}
	tr.OnChange(a.onSessionChange)
	return a
}

// Run restores any persisted session, starts the background re-check and
// serves the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.close()

	a.println("Welcome to giftdesk (type 'help' for commands)")

	rctx, rcancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	if err := a.tracker.Restore(rctx); err != nil {
		a.println(describeError(err))
	}
	rcancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.StartRecheckWatcher(ctx, a.config.RecheckInterval)
	}()

	runREPL(ctx, a, a.input, a.status)

	cancel()
	wg.Wait()
	return nil
}

// StartRecheckWatcher re-confirms the session every interval, the way a
// browser tab does when it regains focus.
func (a *App) StartRecheckWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.recheck(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) recheck(ctx context.Context) {
	a.tracker.Resume()

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()
	if err := a.tracker.Recheck(ctx); err != nil {
		a.logger.Warn(ctx, "session re-check failed", "error", err)
	}
}

func (a *App) close() {
	a.tracker.Close()
	if err := a.input.Close(); err != nil {
		a.logger.Warn(context.Background(), "close input", "error", err)
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) onSessionChange(ev session.Event) {
	switch ev.Reason {
	case session.ReasonWarning:
		cur := a.tracker.Current()
		a.printf("Your session expires in %s. Sign in again afterwards to continue.\n", formatRemaining(cur.Remaining))
	case session.ReasonExpired:
		a.println("Your session has expired. You have been logged out.")
	case session.ReasonRevoked:
		a.println("Your session is no longer valid. You have been logged out.")
	case session.ReasonRejected:
		if ev.From == session.Initializing {
			a.println("Your saved session could not be confirmed. Please log in.")
		}
	case session.ReasonRestored:
		if ev.From == session.Initializing && ev.To.Active() {
			cur := a.tracker.Current()
			a.printf("Welcome back, %s!\n", cur.Employee.FirstName)
		}
	}
}

// status is shown in the prompt.
func (a *App) status() string {
	cur := a.tracker.Current()
	switch cur.State {
	case session.Authenticated:
		return fmt.Sprintf("(%s)", cur.Employee.EmployeeID)
	case session.ExpiringSoon:
		return fmt.Sprintf("(%s, %s left)", cur.Employee.EmployeeID, formatRemaining(cur.Remaining))
	}
	return ""
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, args...)
}

func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Minute {
		return d.Round(time.Second).String()
	}
	return fmt.Sprintf("%d min", int((d+time.Minute-1)/time.Minute))
}
