package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Quota.DailyFreeLimit != 5 {
		t.Errorf("daily_free_limit = %d, want 5", cfg.Quota.DailyFreeLimit)
	}
	if cfg.Rewards.BaseAmount != 3000 {
		t.Errorf("base_amount = %d, want 3000", cfg.Rewards.BaseAmount)
	}
	if cfg.Rewards.ExpiryHours != 12 {
		t.Errorf("expiry_hours = %d, want 12", cfg.Rewards.ExpiryHours)
	}
	if cfg.Rewards.WeekendMultiplier != 2 {
		t.Errorf("weekend_multiplier = %d, want 2", cfg.Rewards.WeekendMultiplier)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("store driver = %s, want sqlite", cfg.Store.Driver)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turnledger.yaml")
	raw := `
listen: ":9090"
quota:
  daily_free_limit: 10
  timezone: "America/New_York"
rewards:
  base_amount: 5000
  expiry_hours: 24
webhook:
  path: "/hooks/vote"
  auth: "secret"
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("listen = %s, want :9090", cfg.Listen)
	}
	if cfg.Quota.DailyFreeLimit != 10 {
		t.Errorf("daily_free_limit = %d, want 10", cfg.Quota.DailyFreeLimit)
	}
	if cfg.Quota.Timezone != "America/New_York" {
		t.Errorf("timezone = %s", cfg.Quota.Timezone)
	}
	if cfg.Rewards.BaseAmount != 5000 {
		t.Errorf("base_amount = %d, want 5000", cfg.Rewards.BaseAmount)
	}
	if cfg.Webhook.Auth != "secret" {
		t.Errorf("webhook auth = %s, want secret", cfg.Webhook.Auth)
	}
	// Untouched keys keep their defaults.
	if cfg.Rewards.WeekendMultiplier != 2 {
		t.Errorf("weekend_multiplier = %d, want 2", cfg.Rewards.WeekendMultiplier)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turnledger.yaml")
	if err := os.WriteFile(path, []byte("quota:\n  daily_free_limit: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TURNLEDGER_DAILY_FREE_LIMIT", "7")
	t.Setenv("TURNLEDGER_WEBHOOK_AUTH", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Quota.DailyFreeLimit != 7 {
		t.Errorf("daily_free_limit = %d, want 7 (env wins)", cfg.Quota.DailyFreeLimit)
	}
	if cfg.Webhook.Auth != "env-secret" {
		t.Errorf("webhook auth = %s, want env-secret", cfg.Webhook.Auth)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"memory driver", func(c *Config) { c.Store.Driver = "memory" }, false},
		{"unknown driver", func(c *Config) { c.Store.Driver = "etcd" }, true},
		{"sqlite without path", func(c *Config) { c.Store.Path = "" }, true},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "postgres" }, true},
		{"negative free limit", func(c *Config) { c.Quota.DailyFreeLimit = -1 }, true},
		{"bad timezone", func(c *Config) { c.Quota.Timezone = "Mars/Olympus" }, true},
		{"zero base amount", func(c *Config) { c.Rewards.BaseAmount = 0 }, true},
		{"zero expiry", func(c *Config) { c.Rewards.ExpiryHours = 0 }, true},
		{"zero multiplier", func(c *Config) { c.Rewards.WeekendMultiplier = 0 }, true},
		{"zero vote window", func(c *Config) { c.Rewards.VoteWindowHours = 0 }, true},
		{"negative vote window", func(c *Config) { c.Rewards.VoteWindowHours = -6 }, true},
		{"relative webhook path", func(c *Config) { c.Webhook.Path = "webhook" }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr=%v", err, tc.wantErr)
			}
		})
	}
}
