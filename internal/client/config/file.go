package config

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/giftdesk/internal/flagx"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables read by the client,
// e.g. GIFTDESK_CLIENT_CACHE_DSN=/tmp/session.db.
const EnvPrefix = "GIFTDESK_CLIENT_"

func parseFile(cfg *Config, args []string) error {
	k := koanf.New(".")

	if path := flagx.ConfigFileFlagFrom(args); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return fmt.Errorf("load environment: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
