// Package config loads daemon configuration from a YAML file with
// TURNLEDGER_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes runtime options for turnledgerd.
type Config struct {
	Listen   string         `yaml:"listen"`
	LogFile  string         `yaml:"log_file"`
	Store    StoreConfig    `yaml:"store"`
	Quota    QuotaConfig    `yaml:"quota"`
	Rewards  RewardsConfig  `yaml:"rewards"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Personas PersonasConfig `yaml:"personas"`
}

// StoreConfig selects and parameterises the persistence backend.
type StoreConfig struct {
	// Driver is one of "sqlite", "postgres", "memory".
	Driver string `yaml:"driver"`
	// Path is the sqlite database file.
	Path string `yaml:"path"`
	// DSN is the postgres connection string.
	DSN string `yaml:"dsn"`
}

// QuotaConfig parameterises the daily free allowance.
type QuotaConfig struct {
	DailyFreeLimit int    `yaml:"daily_free_limit"`
	Timezone       string `yaml:"timezone"`
}

// RewardsConfig parameterises vote rewards.
type RewardsConfig struct {
	BaseAmount        int64 `yaml:"base_amount"`
	ExpiryHours       int   `yaml:"expiry_hours"`
	WeekendMultiplier int64 `yaml:"weekend_multiplier"`
	VoteWindowHours   int   `yaml:"vote_window_hours"`
}

// WebhookConfig parameterises the inbound vote webhook.
type WebhookConfig struct {
	Path string `yaml:"path"`
	// Auth, when set, must match the Authorization header verbatim.
	Auth string `yaml:"auth"`
}

// PersonasConfig parameterises the persona registry loaded at startup.
type PersonasConfig struct {
	Dir       string `yaml:"dir"`
	Default   string `yaml:"default"`
	MaxCustom int    `yaml:"max_custom"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen: ":8080",
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "data/turnledger.db",
		},
		Quota: QuotaConfig{
			DailyFreeLimit: 5,
			Timezone:       "UTC",
		},
		Rewards: RewardsConfig{
			BaseAmount:        3000,
			ExpiryHours:       12,
			WeekendMultiplier: 2,
			VoteWindowHours:   12,
		},
		Webhook: WebhookConfig{
			Path: "/topgg/webhook",
		},
		Personas: PersonasConfig{
			Dir:       "characters",
			Default:   "Nova",
			MaxCustom: 5,
		},
	}
}

// Load reads the YAML file at path (missing file falls back to defaults),
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults + env only
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Listen, "TURNLEDGER_LISTEN")
	setString(&c.LogFile, "TURNLEDGER_LOG_FILE")
	setString(&c.Store.Driver, "TURNLEDGER_STORE_DRIVER")
	setString(&c.Store.Path, "TURNLEDGER_STORE_PATH")
	setString(&c.Store.DSN, "TURNLEDGER_STORE_DSN")
	setInt(&c.Quota.DailyFreeLimit, "TURNLEDGER_DAILY_FREE_LIMIT")
	setString(&c.Quota.Timezone, "TURNLEDGER_TIMEZONE")
	setInt64(&c.Rewards.BaseAmount, "TURNLEDGER_REWARD_BASE_AMOUNT")
	setInt(&c.Rewards.ExpiryHours, "TURNLEDGER_REWARD_EXPIRY_HOURS")
	setInt64(&c.Rewards.WeekendMultiplier, "TURNLEDGER_WEEKEND_MULTIPLIER")
	setInt(&c.Rewards.VoteWindowHours, "TURNLEDGER_VOTE_WINDOW_HOURS")
	setString(&c.Webhook.Path, "TURNLEDGER_WEBHOOK_PATH")
	setString(&c.Webhook.Auth, "TURNLEDGER_WEBHOOK_AUTH")
	setString(&c.Personas.Dir, "TURNLEDGER_PERSONAS_DIR")
	setString(&c.Personas.Default, "TURNLEDGER_PERSONAS_DEFAULT")
	setInt(&c.Personas.MaxCustom, "TURNLEDGER_PERSONAS_MAX_CUSTOM")
}

// Validate ensures the configuration is coherent before anything is wired.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("config: store.path required for sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("config: store.dsn required for postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Quota.DailyFreeLimit < 0 {
		return fmt.Errorf("config: quota.daily_free_limit must not be negative")
	}
	if _, err := c.Quota.Location(); err != nil {
		return fmt.Errorf("config: quota.timezone: %w", err)
	}
	if c.Rewards.BaseAmount <= 0 {
		return fmt.Errorf("config: rewards.base_amount must be positive")
	}
	if c.Rewards.ExpiryHours <= 0 {
		return fmt.Errorf("config: rewards.expiry_hours must be positive")
	}
	if c.Rewards.WeekendMultiplier <= 0 {
		return fmt.Errorf("config: rewards.weekend_multiplier must be positive")
	}
	if c.Rewards.VoteWindowHours <= 0 {
		return fmt.Errorf("config: rewards.vote_window_hours must be positive")
	}
	if !strings.HasPrefix(c.Webhook.Path, "/") {
		return fmt.Errorf("config: webhook.path must start with /")
	}
	if c.Personas.MaxCustom < 0 {
		return fmt.Errorf("config: personas.max_custom must not be negative")
	}
	return nil
}

// Location resolves the configured reference timezone.
func (q QuotaConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(q.Timezone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(q.Timezone)
}

// Expiry returns the grant TTL as a duration.
func (r RewardsConfig) Expiry() time.Duration {
	return time.Duration(r.ExpiryHours) * time.Hour
}

// VoteWindow returns the vote cadence window as a duration.
func (r RewardsConfig) VoteWindow() time.Duration {
	return time.Duration(r.VoteWindowHours) * time.Hour
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			*dst = n
		}
	}
}
