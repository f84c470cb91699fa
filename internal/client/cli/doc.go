// Package cli provides the interactive giftdesk command-line client.
//
// It wires configuration, the local session cache, the HTTP API client and
// the session tracker into a REPL. On start a persisted session is
// confirmed with the server; while running, the client warns before the
// session expires, logs out at expiry and periodically re-checks the
// session with the server.
//
// Commands:
//   - login [id]   sign in with employee ID and year of birth
//   - otp [id]     sign in with an emailed one-time code
//   - whoami       show the signed-in employee
//   - status       show the session state and remaining time
//   - focus        re-check the session now
//   - logout       end the session
//   - exit | quit  leave the program
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
