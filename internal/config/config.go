// Package config loads service configuration from a YAML file with
// environment variable overrides (GUARDBOT_ prefix, underscores mapping to
// nesting, e.g. GUARDBOT_TELEGRAM_TOKEN overrides telegram.token).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "GUARDBOT_"

// Config is the full configuration shared by the gateway and the moderator.
type Config struct {
	Telegram   TelegramConfig   `koanf:"telegram"`
	Trust      TrustConfig      `koanf:"trust"`
	Moderation ModerationConfig `koanf:"moderation"`
	Redis      RedisConfig      `koanf:"redis"`
	NATS       NATSConfig       `koanf:"nats"`
	Postgres   PostgresConfig   `koanf:"postgres"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

type TelegramConfig struct {
	Token string `koanf:"token"`
}

// TrustConfig identifies the accounts whose messages are never moderated.
type TrustConfig struct {
	BotID     int64   `koanf:"bot_id"`     // the bot's own account id
	OwnerIDs  []int64 `koanf:"owner_ids"`  // chat owners, always exempt
	ChannelID int64   `koanf:"channel_id"` // linked channel, 0 disables
}

type ModerationConfig struct {
	NewMembersOnly bool          `koanf:"new_members_only"`
	RecencyWindow  time.Duration `koanf:"recency_window"`
	NotifyOnDelete bool          `koanf:"notify_on_delete"`
	Store          string        `koanf:"store"` // "memory" or "redis"
}

type RedisConfig struct {
	Addr string `koanf:"addr"`
}

type NATSConfig struct {
	URL string `koanf:"url"`
}

type PostgresConfig struct {
	DSN string `koanf:"dsn"` // empty disables the decision audit log
}

type MetricsConfig struct {
	Listen string `koanf:"listen"`
}

// Load reads the YAML file at path (skipped if missing) and applies
// environment overrides, then fills in defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	// GUARDBOT_MODERATION_RECENCY_WINDOW -> moderation.recency.window would
	// be wrong, so only the first underscore becomes a dot.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(s, "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Moderation.RecencyWindow == 0 {
		c.Moderation.RecencyWindow = 24 * time.Hour
	}
	if c.Moderation.Store == "" {
		c.Moderation.Store = "memory"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.NATS.URL == "" {
		c.NATS.URL = "nats://localhost:4222"
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9102"
	}
}

// Validate checks the settings both services cannot run without.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("config: telegram.token is required")
	}
	if len(c.Trust.OwnerIDs) == 0 {
		return errors.New("config: trust.owner_ids must list at least one owner")
	}
	switch c.Moderation.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: moderation.store %q is not one of memory, redis", c.Moderation.Store)
	}
	if c.Moderation.RecencyWindow < 0 {
		return errors.New("config: moderation.recency_window must not be negative")
	}
	return nil
}
