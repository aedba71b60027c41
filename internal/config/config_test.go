package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/finance-store-go/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_BACKEND", "DEFAULT_CURRENCY", "BUDGET_WINDOW", "WRITE_TIMEOUT", "TRACING_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg := config.Load()
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.StoreBackend != config.BackendMemory {
		t.Errorf("expected memory backend, got %s", cfg.StoreBackend)
	}
	if cfg.BudgetWindow != config.WindowMonthToDate {
		t.Errorf("expected month_to_date window, got %s", cfg.BudgetWindow)
	}
	if cfg.WriteTimeout != 5*time.Second {
		t.Errorf("expected 5s write timeout, got %s", cfg.WriteTimeout)
	}
	if cfg.TracingEndpoint() != "" {
		t.Errorf("expected tracing off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "SQLite")
	t.Setenv("DEFAULT_CURRENCY", "eur")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg := config.Load()
	if cfg.Port != 9090 {
		t.Errorf("expected 9090, got %d", cfg.Port)
	}
	if cfg.StoreBackend != config.BackendSQLite {
		t.Errorf("expected sqlite, got %s", cfg.StoreBackend)
	}
	if cfg.DefaultCurrency != "EUR" {
		t.Errorf("expected EUR, got %s", cfg.DefaultCurrency)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected fallback retries 3, got %d", cfg.MaxRetries)
	}
	if cfg.TracingEndpoint() == "" {
		t.Errorf("expected tracing endpoint when enabled")
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"backend", func(c *config.Config) { c.StoreBackend = "redis" }},
		{"sqlite path", func(c *config.Config) { c.StoreBackend = config.BackendSQLite; c.SQLitePath = "" }},
		{"window", func(c *config.Config) { c.BudgetWindow = "fortnight" }},
		{"currency", func(c *config.Config) { c.DefaultCurrency = "EURO" }},
		{"port", func(c *config.Config) { c.Port = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Load()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nexport FINSTORE_A=\"one\"\nFINSTORE_B = two\nFINSTORE_C=keep\nbroken-line\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINSTORE_C", "env")
	t.Setenv("FINSTORE_A", "")
	os.Unsetenv("FINSTORE_A")
	os.Unsetenv("FINSTORE_B")
	t.Cleanup(func() { os.Unsetenv("FINSTORE_B") })

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("FINSTORE_A"); got != "one" {
		t.Errorf("expected one, got %q", got)
	}
	if got := os.Getenv("FINSTORE_B"); got != "two" {
		t.Errorf("expected two, got %q", got)
	}
	if got := os.Getenv("FINSTORE_C"); got != "env" {
		t.Errorf("expected env to win, got %q", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing file")
	}
}
