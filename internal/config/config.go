// Package config loads the dashboard settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Banking backend
	BankAPIURL string
	APITimeout time.Duration

	// Sessions
	SQLiteDBPath        string
	SessionTTL          time.Duration
	SessionCookieSecure bool

	// Notification badge
	BadgePollInterval time.Duration

	// Logging
	LogLevel string

	// Terminal badge watcher credentials
	Email    string
	Password string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		BankAPIURL: strings.TrimRight(getEnv("BANK_API_URL", "http://127.0.0.1:8000"), "/"),
		APITimeout: getEnvDuration("API_TIMEOUT", 10*time.Second),

		SQLiteDBPath:        getEnv("SQLITE_DB_PATH", "./data/bankpro.db"),
		SessionTTL:          getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionCookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),

		BadgePollInterval: getEnvDuration("BADGE_POLL_INTERVAL", 30*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		Email:    getEnv("BANKPRO_EMAIL", ""),
		Password: getEnv("BANKPRO_PASSWORD", ""),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.BankAPIURL == "" {
		errors = append(errors, "bank API URL cannot be empty")
	} else if u, err := url.Parse(c.BankAPIURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid bank API URL '%s': %v", c.BankAPIURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid bank API URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	} else if u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid bank API URL '%s': missing host", c.BankAPIURL))
	}

	if c.APITimeout < 100*time.Millisecond || c.APITimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be between 100ms and 2m", c.APITimeout))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.BadgePollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid badge poll interval %v: must be at least 1 second", c.BadgePollInterval))
	} else if c.BadgePollInterval > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid badge poll interval %v: must be at most 1 hour", c.BadgePollInterval))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateCredentials is the extra check run by the terminal badge watcher.
func (c *Config) ValidateCredentials() error {
	var missing []string
	if c.Email == "" {
		missing = append(missing, "BANKPRO_EMAIL")
	}
	if c.Password == "" {
		missing = append(missing, "BANKPRO_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
