package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
trust:
  bot_id: 100
  owner_ids: [200, 201]
  channel_id: 300
moderation:
  new_members_only: true
  recency_window: 12h
  store: redis
redis:
  addr: "redis:6379"
nats:
  url: "nats://broker:4222"
postgres:
  dsn: "postgres://localhost/guardbot?sslmode=disable"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Trust.BotID != 100 || cfg.Trust.ChannelID != 300 {
		t.Errorf("trust = %+v", cfg.Trust)
	}
	if len(cfg.Trust.OwnerIDs) != 2 || cfg.Trust.OwnerIDs[0] != 200 {
		t.Errorf("owner_ids = %v", cfg.Trust.OwnerIDs)
	}
	if !cfg.Moderation.NewMembersOnly {
		t.Error("new_members_only = false, want true")
	}
	if cfg.Moderation.RecencyWindow != 12*time.Hour {
		t.Errorf("recency_window = %v", cfg.Moderation.RecencyWindow)
	}
	if cfg.Moderation.Store != "redis" {
		t.Errorf("store = %q", cfg.Moderation.Store)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.NATS.URL != "nats://broker:4222" {
		t.Errorf("nats url = %q", cfg.NATS.URL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
trust:
  owner_ids: [200]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Moderation.NewMembersOnly {
		t.Error("new_members_only defaults to true, want false")
	}
	if cfg.Moderation.RecencyWindow != 24*time.Hour {
		t.Errorf("recency_window default = %v, want 24h", cfg.Moderation.RecencyWindow)
	}
	if cfg.Moderation.Store != "memory" {
		t.Errorf("store default = %q, want memory", cfg.Moderation.Store)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis addr default = %q", cfg.Redis.Addr)
	}
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("nats url default = %q", cfg.NATS.URL)
	}
	if cfg.Metrics.Listen != ":9102" {
		t.Errorf("metrics listen default = %q", cfg.Metrics.Listen)
	}
	if cfg.Postgres.DSN != "" {
		t.Errorf("postgres dsn default = %q, want empty", cfg.Postgres.DSN)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "file-token"
trust:
  owner_ids: [200]
`)

	t.Setenv("GUARDBOT_TELEGRAM_TOKEN", "env-token")
	t.Setenv("GUARDBOT_REDIS_ADDR", "override:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Errorf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Redis.Addr != "override:6379" {
		t.Errorf("redis addr = %q, want env override", cfg.Redis.Addr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("GUARDBOT_TELEGRAM_TOKEN", "env-only")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Telegram.Token != "env-only" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Telegram:   TelegramConfig{Token: "123:abc"},
			Trust:      TrustConfig{OwnerIDs: []int64{200}},
			Moderation: ModerationConfig{Store: "memory", RecencyWindow: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing token", func(c *Config) { c.Telegram.Token = "" }, true},
		{"no owners", func(c *Config) { c.Trust.OwnerIDs = nil }, true},
		{"bad store", func(c *Config) { c.Moderation.Store = "mongo" }, true},
		{"negative window", func(c *Config) { c.Moderation.RecencyWindow = -time.Hour }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
