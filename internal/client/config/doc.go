// Package config loads runtime configuration for the giftdesk terminal client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional YAML file selected via -c or -config.
//  3. GIFTDESK_CLIENT_* environment variables.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the giftdesk server
//	-f string   path of the local session cache
//	-i int      session re-check interval (seconds)
//	-w int      expiring-soon warning lead time (minutes)
//	-v string   log level
//
// # YAML schema
//
// Durations use time.ParseDuration syntax:
//
//	server_endpoint_addr: "http://127.0.0.1:8080"
//	cache_dsn: "giftdesk.db"
//	recheck_interval: 30s
//	expiry_warning: 5m
//	request_timeout: 5s
//	log_level: warn
package config
