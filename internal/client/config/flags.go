package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the server (default from Config)
//	-f string   session cache path
//	-i int      re-check interval in seconds
//	-w int      expiring-soon warning in minutes
//	-v string   log level
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-f", "-i", "-w", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL of the server")
	fs.StringVar(&cfg.CacheDSN, "f", cfg.CacheDSN, "session cache file")
	recheck := fs.Int("i", int(cfg.RecheckInterval.Seconds()), "session re-check interval (in seconds)")
	warning := fs.Int("w", int(cfg.ExpiryWarning.Minutes()), "expiry warning (in minutes)")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.RecheckInterval = time.Duration(*recheck) * time.Second
		case "w":
			cfg.ExpiryWarning = time.Duration(*warning) * time.Minute
		}
	})
	return nil
}
