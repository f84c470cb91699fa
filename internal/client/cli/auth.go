package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/client/session"
	"github.com/dmitrijs2005/giftdesk/internal/common"
)

func (a *App) isLoggedIn() bool {
	return a.tracker.Current().State.Active()
}

// Login runs the two-step sign-in with the year of birth. A wrong year is
// asked again while attempts remain.
func (a *App) Login(ctx context.Context, employeeID string) error {
	id, err := a.identify(ctx, employeeID)
	if err != nil {
		return err
	}

	for {
		answer, err := a.input.PromptSecret("Year of birth: ")
		if err != nil {
			return err
		}
		if answer == "" {
			return ErrCancelled
		}
		year, err := strconv.Atoi(answer)
		if err != nil || year < 1900 || year > 2100 {
			a.println("Please enter a four-digit year.")
			continue
		}

		s, err := a.authService.LoginWithBirthYear(ctx, id, year)
		if retry, err := a.retryable(err); !retry {
			if err != nil {
				return err
			}
			a.welcome(s)
			return nil
		}
	}
}

// LoginWithCode runs the two-step sign-in with an emailed one-time code.
func (a *App) LoginWithCode(ctx context.Context, employeeID string) error {
	id, err := a.identify(ctx, employeeID)
	if err != nil {
		return err
	}

	rc, err := a.authService.RequestCode(ctx, id)
	if err != nil {
		return err
	}
	a.printf("A code was sent to %s. It is valid until %s.\n", rc.MaskedEmail, rc.ExpiresAt.Local().Format(time.Kitchen))

	for {
		code, err := a.input.PromptSecret("Code: ")
		if err != nil {
			return err
		}
		if code == "" {
			return ErrCancelled
		}

		s, err := a.authService.LoginWithCode(ctx, id, code)
		if retry, err := a.retryable(err); !retry {
			if err != nil {
				return err
			}
			a.welcome(s)
			return nil
		}
	}
}

// Logout ends the session. Local state is cleared even when the server
// cannot be told.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in.")
		return nil
	}
	if err := a.tracker.Logout(ctx); err != nil {
		return err
	}
	a.println("Logged out.")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	cur := a.tracker.Current()
	if !cur.State.Active() {
		a.println("Not logged in.")
		return nil
	}
	e := cur.Employee
	a.printf("%s %s (%s)\nPoints balance: %d\n", e.FirstName, e.LastName, e.EmployeeID, e.PointsBalance)
	return nil
}

func (a *App) Status(ctx context.Context) error {
	cur := a.tracker.Current()
	if !cur.State.Active() {
		a.printf("Session: %s\n", cur.State)
		return nil
	}
	a.printf("Session: %s, expires at %s (%s left)\n", cur.State, cur.ExpiresAt.Local().Format(time.Kitchen), formatRemaining(cur.Remaining))
	return nil
}

// Focus re-checks the session immediately.
func (a *App) Focus(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in.")
		return nil
	}
	a.tracker.Resume()
	if err := a.tracker.Recheck(ctx); err != nil {
		return err
	}
	return a.Status(ctx)
}

// identify asks for the employee ID when none was given and shows who it
// belongs to.
func (a *App) identify(ctx context.Context, employeeID string) (string, error) {
	if a.isLoggedIn() {
		a.println("Already logged in. Log out first to switch employees.")
		return "", ErrCancelled
	}

	if employeeID == "" {
		var err error
		if employeeID, err = a.input.Prompt("Employee ID: "); err != nil {
			return "", err
		}
		if employeeID == "" {
			return "", ErrCancelled
		}
	}

	res, err := a.authService.Identify(ctx, employeeID)
	if err != nil {
		return "", err
	}
	a.printf("Hello, %s %s (%s).\n", res.FirstName, res.LastName, res.MaskedEmployeeID)
	return employeeID, nil
}

// retryable prints a wrong-answer message and reports whether to ask
// again. Other errors are handed back.
func (a *App) retryable(err error) (bool, error) {
	var ice *common.InvalidCredentialError
	switch {
	case errors.As(err, &ice):
		a.println(describeError(err))
		if ice.RemainingAttempts > 0 {
			return true, nil
		}
		return false, ErrCancelled
	case errors.Is(err, common.ErrorValidation):
		a.println(describeError(err))
		return true, nil
	}
	return false, err
}

func (a *App) welcome(s session.Session) {
	a.printf("Welcome, %s! Points balance: %d.\n", s.Employee.FirstName, s.Employee.PointsBalance)
	if s.Employee.IsNewUser {
		a.println("This is your first visit. Happy gifting!")
	}
}

// describeError turns an error into a message for the user.
func describeError(err error) string {
	var (
		ice *common.InvalidCredentialError
		le  *common.LockedError
	)
	switch {
	case errors.As(err, &ice):
		return fmt.Sprintf("Incorrect, please try again (%d attempt(s) left).", ice.RemainingAttempts)
	case errors.As(err, &le):
		if le.MinutesRemaining == nil {
			return "Your account is locked. Please contact HR."
		}
		return fmt.Sprintf("Your account is locked. Try again in %d minute(s).", *le.MinutesRemaining)
	case errors.Is(err, common.ErrorNotFound):
		return "Employee ID not found."
	case errors.Is(err, common.ErrorUnauthorized):
		return "Your session is not valid. Please log in again."
	case errors.Is(err, common.ErrorRateLimited):
		return "Too many attempts. Please wait a moment."
	case errors.Is(err, common.ErrorUnavailable):
		return "Server is unavailable. Please try again later."
	case errors.Is(err, common.ErrorValidation):
		return err.Error()
	}
	return "Something went wrong: " + err.Error()
}
