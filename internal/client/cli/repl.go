package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, employeeID string) error
	LoginWithCode(ctx context.Context, employeeID string) error
	Whoami(ctx context.Context) error
	Status(ctx context.Context) error
	Focus(ctx context.Context) error
	Logout(ctx context.Context) error
	println(args ...any)
}

// runREPL reads commands from in until EOF, cancellation or "exit".
//
// Prompt & Commands
//
//	Not logged in:
//	  - help           show available commands
//	  - login [id]     sign in with year of birth
//	  - otp [id]       sign in with an emailed code
//	  - status         show the session state
//	  - exit | quit    leave the program
//
//	Logged in:
//	  - help, status, exit as above
//	  - whoami         show the signed-in employee
//	  - focus          re-check the session now
//	  - logout         end the session
//
// Errors returned by handlers are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, in Input, statusFn func() string) {
	for {
		if ctx.Err() != nil {
			return
		}

		line, err := in.Prompt(fmt.Sprintf("giftdesk%s> ", prefixSpace(statusFn())))
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				continue
			}
			if !errors.Is(err, io.EOF) {
				a.println("input error:", err)
			}
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]
		arg := ""
		if len(args) > 0 {
			arg = args[0]
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				a.println("Available commands: whoami, status, focus, logout, exit")
			} else {
				a.println("Available commands: login [id], otp [id], status, exit")
			}

		case "login":
			err = a.Login(ctx, arg)

		case "otp":
			err = a.LoginWithCode(ctx, arg)

		case "whoami":
			err = a.Whoami(ctx)

		case "status":
			err = a.Status(ctx)

		case "focus":
			err = a.Focus(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "exit", "quit":
			a.println("Bye!")
			return

		default:
			a.println("Unknown command:", cmd)
		}

		if err != nil && !errors.Is(err, ErrCancelled) {
			a.println(describeError(err))
		}
	}
}

func prefixSpace(s string) string {
	if s == "" {
		return ""
	}
	return " " + s
}
