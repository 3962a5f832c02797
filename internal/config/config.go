// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string

	// OrderDBPath is the SQLite database holding clients, orders and
	// order items.
	OrderDBPath string

	// KVPath is the Pebble directory backing the draft order and the
	// security log. Empty selects an in-memory store (state is lost on
	// restart).
	KVPath string

	// Identity provider endpoint and public API key.
	IdentityURL    string
	IdentityAPIKey string

	// ObfuscationPassphrase seeds the draft client-data obfuscation.
	ObfuscationPassphrase string

	// SessionIdleTimeout forces logout after this much inactivity; the
	// monitor sweeps every ActivityCheckInterval.
	SessionIdleTimeout    time.Duration
	ActivityCheckInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		FrontendURL:           getEnv("FRONTEND_URL", ""),
		OrderDBPath:           getEnv("ORDER_DB_PATH", "./data/orders.db"),
		KVPath:                getEnv("KV_PATH", "./data/checkout-kv"),
		IdentityURL:           getEnv("IDENTITY_URL", ""),
		IdentityAPIKey:        getEnv("IDENTITY_API_KEY", ""),
		ObfuscationPassphrase: getEnv("OBFUSCATION_PASSPHRASE", ""),
		SessionIdleTimeout:    getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		ActivityCheckInterval: getEnvDuration("ACTIVITY_CHECK_INTERVAL", time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.OrderDBPath == "" {
		return fmt.Errorf("ORDER_DB_PATH cannot be empty")
	}
	if c.IdentityURL == "" {
		return fmt.Errorf("IDENTITY_URL cannot be empty")
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be > 0")
	}
	if c.ActivityCheckInterval <= 0 {
		return fmt.Errorf("ACTIVITY_CHECK_INTERVAL must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
