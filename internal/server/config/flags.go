package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-t int      session lifetime, minutes
//	-n int      failed verification attempts before lockout
//	-p string   lockout policy: permanent or timed
//	-m int      timed lockout duration, minutes
//	-o int      one-time code validity, minutes
//	-v string   log level
//
// args is filtered to the flags above first, so other components' flags
// do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-t", "-n", "-p", "-m", "-o", "-v"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session lifetime (in minutes)")
	fs.IntVar(&config.MaxVerifyAttempts, "n", config.MaxVerifyAttempts, "failed attempts before lockout")
	fs.StringVar(&config.LockoutPolicy, "p", config.LockoutPolicy, "lockout policy (permanent|timed)")
	lockoutDuration := fs.Int("m", int(config.LockoutDuration.Minutes()), "timed lockout duration (in minutes)")
	otpTTL := fs.Int("o", int(config.OTPCodeTTL.Minutes()), "one-time code validity (in minutes)")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// Keep sub-minute values from the file when the flag was not given.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
		case "m":
			config.LockoutDuration = time.Duration(*lockoutDuration) * time.Minute
		case "o":
			config.OTPCodeTTL = time.Duration(*otpTTL) * time.Minute
		}
	})
	return nil
}
