package config

import (
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"
)

var eaglesVars = []string{
	"EAGLES_ADDR", "EAGLES_ENV", "EAGLES_STORE", "EAGLES_DB_PATH", "EAGLES_DATABASE_URL",
	"EAGLES_REDIS_ADDR", "EAGLES_REDIS_PASSWORD", "EAGLES_REDIS_DB", "EAGLES_ADMIN_USERNAMES",
	"EAGLES_CSRF_KEY", "EAGLES_RATE_LIMIT", "EAGLES_SLOW_REQUEST_MS", "EAGLES_SLOW_QUERY_MS",
	"EAGLES_REQUEST_TIMEOUT", "EAGLES_RESEND_KEY", "EAGLES_RESEND_FROM", "EAGLES_REPLY_TO", "EAGLES_LOG_LEVEL",
}

// clearEnv blanks every EAGLES_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range eaglesVars {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":8080")
	}
	if cfg.Store != StoreSQLite || cfg.DBPath != "eagles.db" {
		t.Errorf("Store = %q DBPath = %q", cfg.Store, cfg.DBPath)
	}
	if !reflect.DeepEqual(cfg.AdminUsernames, []string{"Manu"}) {
		t.Errorf("AdminUsernames = %v, want [Manu]", cfg.AdminUsernames)
	}
	if cfg.RateLimit != 10 {
		t.Errorf("RateLimit = %d, want 10", cfg.RateLimit)
	}
	if cfg.SlowQuery != 50*time.Millisecond || cfg.SlowRequest != 500*time.Millisecond {
		t.Errorf("SlowQuery = %v SlowRequest = %v", cfg.SlowQuery, cfg.SlowRequest)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.IsProduction() {
		t.Error("default env should not be production")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EAGLES_ADDR", ":9090")
	t.Setenv("EAGLES_STORE", "Redis")
	t.Setenv("EAGLES_REDIS_ADDR", "cache:6379")
	t.Setenv("EAGLES_REDIS_DB", "2")
	t.Setenv("EAGLES_ADMIN_USERNAMES", " coach, captain ,,")
	t.Setenv("EAGLES_RATE_LIMIT", "25")
	t.Setenv("EAGLES_SLOW_QUERY_MS", "0")
	t.Setenv("EAGLES_LOG_LEVEL", "debug")
	t.Setenv("EAGLES_REQUEST_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Addr != ":9090" || cfg.Store != StoreRedis || cfg.RedisAddr != "cache:6379" || cfg.RedisDB != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.AdminUsernames, []string{"coach", "captain"}) {
		t.Errorf("AdminUsernames = %v", cfg.AdminUsernames)
	}
	if cfg.RateLimit != 25 || cfg.SlowQuery != 0 || cfg.RequestTimeout != 3*time.Second {
		t.Errorf("RateLimit = %d SlowQuery = %v RequestTimeout = %v", cfg.RateLimit, cfg.SlowQuery, cfg.RequestTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("EAGLES_REDIS_DB", "two")
	t.Setenv("EAGLES_SLOW_REQUEST_MS", "-5")
	t.Setenv("EAGLES_LOG_LEVEL", "chatty")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.RedisDB != 0 || cfg.SlowRequest != 500*time.Millisecond || cfg.LogLevel != slog.LevelInfo {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantMsg string
	}{
		{"unknown store", map[string]string{"EAGLES_STORE": "mongo"}, "EAGLES_STORE"},
		{"postgres without url", map[string]string{"EAGLES_STORE": "postgres"}, "EAGLES_DATABASE_URL"},
		{"production without csrf key", map[string]string{"EAGLES_ENV": "production"}, "EAGLES_CSRF_KEY"},
		{"short csrf key", map[string]string{"EAGLES_CSRF_KEY": "abcd"}, "EAGLES_CSRF_KEY"},
		{"zero rate limit", map[string]string{"EAGLES_RATE_LIMIT": "0"}, "EAGLES_RATE_LIMIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want mention of %s", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_ProductionWithKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("EAGLES_ENV", "production")
	t.Setenv("EAGLES_CSRF_KEY", strings.Repeat("ab", 32))
	t.Setenv("EAGLES_STORE", "postgres")
	t.Setenv("EAGLES_DATABASE_URL", "postgres://eagles@localhost/eagles?sslmode=disable")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !cfg.IsProduction() {
		t.Error("expected production")
	}
	if len(cfg.CSRFKey) != 32 {
		t.Errorf("CSRFKey length = %d, want 32", len(cfg.CSRFKey))
	}
}
