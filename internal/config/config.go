// Package config reads billr settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/currency"

	"github.com/sadopc/billr/internal/store"
)

type Config struct {
	// Storage
	DBPath string

	// Logging
	LogFile  string
	LogLevel string

	// Currency
	BaseCurrency   string
	TargetCurrency string
	RateURL        string
	FallbackRate   float64
	HTTPTimeout    time.Duration
}

// Load reads .env files, if present, and then the environment. Variables
// already set in the environment win over .env values.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		DBPath: getEnv("BILLR_DB_PATH", defaultDBPath()),

		LogFile:  getEnv("BILLR_LOG_FILE", defaultLogFile()),
		LogLevel: getEnv("BILLR_LOG_LEVEL", "info"),

		BaseCurrency:   strings.ToUpper(getEnv("BILLR_BASE_CURRENCY", "EUR")),
		TargetCurrency: strings.ToUpper(getEnv("BILLR_TARGET_CURRENCY", "USD")),
		RateURL:        getEnv("BILLR_RATE_URL", "https://api.frankfurter.app/latest"),
		FallbackRate:   getEnvFloat("BILLR_FALLBACK_RATE", 1.08),
		HTTPTimeout:    getEnvDuration("BILLR_HTTP_TIMEOUT", 5*time.Second),
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	}

	for _, cur := range []struct{ name, code string }{
		{"base", c.BaseCurrency},
		{"target", c.TargetCurrency},
	} {
		if _, err := currency.ParseISO(cur.code); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s currency '%s': not an ISO 4217 code", cur.name, cur.code))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if c.RateURL != "" {
		if u, err := url.Parse(c.RateURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid rate URL '%s': %v", c.RateURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid rate URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	}

	if c.FallbackRate <= 0 {
		errors = append(errors, fmt.Sprintf("invalid fallback rate %v: must be positive", c.FallbackRate))
	}

	if c.HTTPTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 100ms", c.HTTPTimeout))
	} else if c.HTTPTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at most 1 minute", c.HTTPTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// defaultDBPath falls back to the working directory when the user config
// directory is unknown.
func defaultDBPath() string {
	p, err := store.DefaultDBPath()
	if err != nil {
		return "billr.db"
	}
	return p
}

func defaultLogFile() string {
	return filepath.Join(filepath.Dir(defaultDBPath()), "billr.log")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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
