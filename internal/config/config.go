// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Budget windows.
const (
	WindowMonthToDate = "month_to_date"
	WindowPeriod      = "period"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Store
	StoreBackend string
	SQLitePath   string
	WriteTimeout time.Duration

	// Domain defaults
	DefaultCurrency string
	BudgetWindow    string

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration

	// HTTP idempotency
	IdempotencyTTL time.Duration

	// Observability
	OTLPEndpoint   string
	TracingEnabled bool
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		SQLitePath:   getEnv("SQLITE_PATH", "finance.db"),
		WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 5*time.Second),

		DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),
		BudgetWindow:    strings.ToLower(getEnv("BUDGET_WINDOW", WindowMonthToDate)),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 50*time.Millisecond),

		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 10*time.Minute),

		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}
}

// Validate rejects settings the store cannot start with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_BACKEND=%s", BackendSQLite)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.BudgetWindow {
	case WindowMonthToDate, WindowPeriod:
	default:
		return fmt.Errorf("unknown BUDGET_WINDOW %q", c.BudgetWindow)
	}
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("DEFAULT_CURRENCY must be a 3-letter code, got %q", c.DefaultCurrency)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}

// TracingEndpoint returns the OTLP endpoint, or "" when tracing is off.
func (c *Config) TracingEndpoint() string {
	if !c.TracingEnabled {
		return ""
	}
	return c.OTLPEndpoint
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
